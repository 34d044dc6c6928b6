package carve

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidConfig is returned when a carving configuration cannot describe a level.
var ErrInvalidConfig = errors.New("carve: invalid config")

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int
	Max int
}

// Pick returns a uniform value in [Min, Max].
func (r IntRange) Pick(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// FloatRange is an inclusive float range.
type FloatRange struct {
	Min float64
	Max float64
}

// Pick returns a uniform value in [Min, Max].
func (r FloatRange) Pick(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Contains reports whether v lies strictly between Min and Max.
func (r FloatRange) Contains(v float64) bool {
	return v > r.Min && v < r.Max
}

// Config holds the stamp carving parameters. Distances are in cells.
type Config struct {
	Width  IntRange
	Height IntRange
	// Buffer is the ring of permanent wall around the carvable interior.
	Buffer int

	StampCount int
	Radius     FloatRange

	InnerStampCount IntRange
	InnerRadius     FloatRange

	LineThickness FloatRange

	// StampSpacing bounds the distance from the previous stamp's
	// connection point to the next stamp's center.
	StampSpacing    FloatRange
	SpacingAttempts int
}

// DefaultConfig returns the stock geometric stamp plan.
func DefaultConfig() Config {
	return Config{
		Width:           IntRange{Min: 50, Max: 100},
		Height:          IntRange{Min: 50, Max: 100},
		Buffer:          10,
		StampCount:      5,
		Radius:          FloatRange{Min: 10, Max: 20},
		InnerStampCount: IntRange{Min: 0, Max: 3},
		InnerRadius:     FloatRange{Min: 3, Max: 5},
		LineThickness:   FloatRange{Min: 3, Max: 6},
		StampSpacing:    FloatRange{Min: 4, Max: 8},
		SpacingAttempts: 1000,
	}
}

// Validate checks the structural sanity of the config.
func (c Config) Validate() error {
	switch {
	case c.Width.Min <= 0 || c.Height.Min <= 0:
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidConfig)
	case c.Width.Max < c.Width.Min || c.Height.Max < c.Height.Min:
		return fmt.Errorf("%w: inverted dimension range", ErrInvalidConfig)
	case c.Buffer < 0:
		return fmt.Errorf("%w: negative wall buffer", ErrInvalidConfig)
	case c.StampCount < 0:
		return fmt.Errorf("%w: negative stamp count", ErrInvalidConfig)
	case c.InnerStampCount.Min < 0 || c.InnerStampCount.Max < c.InnerStampCount.Min:
		return fmt.Errorf("%w: bad inner stamp count range", ErrInvalidConfig)
	case c.Radius.Max < c.Radius.Min || c.InnerRadius.Max < c.InnerRadius.Min:
		return fmt.Errorf("%w: inverted radius range", ErrInvalidConfig)
	case c.LineThickness.Max < c.LineThickness.Min:
		return fmt.Errorf("%w: inverted line thickness range", ErrInvalidConfig)
	case c.StampSpacing.Max < c.StampSpacing.Min:
		return fmt.Errorf("%w: inverted stamp spacing range", ErrInvalidConfig)
	}
	return nil
}
