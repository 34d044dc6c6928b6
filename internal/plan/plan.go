// Package plan describes level generation presets loaded from YAML.
package plan

import (
	"errors"
	"fmt"

	"github.com/samdwyer/cavern/internal/carve"
	"github.com/samdwyer/cavern/internal/navgraph"
)

// Kind selects the carving algorithm.
type Kind string

const (
	// KindStamps carves overlapping circle stamps joined by corridors.
	KindStamps Kind = "stamps"
	// KindCircle carves one round room.
	KindCircle Kind = "circle"
)

// ErrInvalidPlan is returned for plans that cannot be generated.
var ErrInvalidPlan = errors.New("invalid plan")

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// FloatRange is an inclusive float range.
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Bake holds the graph baking parameters of a plan. Distances are in world units.
type Bake struct {
	Directions          int     `yaml:"directions"`
	MaxNeighborDistance float64 `yaml:"max_neighbor_distance"`
	LineTolerance       float64 `yaml:"line_tolerance"`
	RoomThreshold       float64 `yaml:"room_threshold"`
	ChunkSize           int     `yaml:"chunk_size"`
	VerifyEdges         *bool   `yaml:"verify_edges"`
}

// Palette holds hex colors for drawing a level.
type Palette struct {
	Wall  string `yaml:"wall"`  // Wall tiles
	Floor string `yaml:"floor"` // Open tiles with no clearance to speak of
	Cool  string `yaml:"cool"`  // Low end of the clearance heat ramp
	Warm  string `yaml:"warm"`  // High end of the clearance heat ramp
	Path  string `yaml:"path"`  // Planned route
	Agent string `yaml:"agent"` // The walker
}

// Plan is one level generation preset.
type Plan struct {
	ID     string `yaml:"id"`     // Unique identifier (e.g., "caverns")
	Name   string `yaml:"name"`   // Display name
	Kind   Kind   `yaml:"kind"`   // Carving algorithm
	Weight int    `yaml:"weight"` // Relative pick frequency
	// Seed fixes the random source; zero means pick one at generation time.
	Seed int64 `yaml:"seed"`

	Width           IntRange   `yaml:"width"`
	Height          IntRange   `yaml:"height"`
	Buffer          int        `yaml:"buffer"`
	Stamps          int        `yaml:"stamps"`
	Radius          FloatRange `yaml:"radius"`
	InnerStamps     IntRange   `yaml:"inner_stamps"`
	InnerRadius     FloatRange `yaml:"inner_radius"`
	LineThickness   FloatRange `yaml:"line_thickness"`
	StampSpacing    FloatRange `yaml:"stamp_spacing"`
	SpacingAttempts int        `yaml:"spacing_attempts"`

	// CircleRadius sizes KindCircle plans, in cells.
	CircleRadius int `yaml:"circle_radius"`

	Bake    Bake    `yaml:"bake"`
	Palette Palette `yaml:"palette"`
}

// Validate checks that the plan can be generated.
func (p *Plan) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPlan)
	}
	switch p.Kind {
	case KindStamps:
		if err := p.Carve().Validate(); err != nil {
			return fmt.Errorf("plan %s: %w", p.ID, err)
		}
	case KindCircle:
		if p.CircleRadius <= 0 {
			return fmt.Errorf("%w: plan %s: circle_radius must be positive", ErrInvalidPlan, p.ID)
		}
		if p.Buffer < 0 {
			return fmt.Errorf("%w: plan %s: negative buffer", ErrInvalidPlan, p.ID)
		}
	default:
		return fmt.Errorf("%w: plan %s: unknown kind %q", ErrInvalidPlan, p.ID, p.Kind)
	}
	if p.Weight < 0 {
		return fmt.Errorf("%w: plan %s: negative weight", ErrInvalidPlan, p.ID)
	}
	return nil
}

// Carve returns the stamp carving config for the plan. Attempts default
// to the stock config's when unset.
func (p *Plan) Carve() carve.Config {
	cfg := carve.Config{
		Width:           carve.IntRange(p.Width),
		Height:          carve.IntRange(p.Height),
		Buffer:          p.Buffer,
		StampCount:      p.Stamps,
		Radius:          carve.FloatRange(p.Radius),
		InnerStampCount: carve.IntRange(p.InnerStamps),
		InnerRadius:     carve.FloatRange(p.InnerRadius),
		LineThickness:   carve.FloatRange(p.LineThickness),
		StampSpacing:    carve.FloatRange(p.StampSpacing),
		SpacingAttempts: p.SpacingAttempts,
	}
	if cfg.SpacingAttempts <= 0 {
		cfg.SpacingAttempts = carve.DefaultConfig().SpacingAttempts
	}
	return cfg
}

// BakeConfig returns the graph baking config for the plan. Unset fields
// keep their stock values.
func (p *Plan) BakeConfig() navgraph.BakeConfig {
	cfg := navgraph.DefaultBakeConfig()
	b := p.Bake
	if b.Directions > 0 {
		cfg.Directions = b.Directions
	}
	if b.MaxNeighborDistance > 0 {
		cfg.MaxNeighborDistance = b.MaxNeighborDistance
	}
	if b.LineTolerance > 0 {
		cfg.LineTolerance = b.LineTolerance
	}
	if b.RoomThreshold > 0 {
		cfg.RoomThreshold = b.RoomThreshold
	}
	if b.ChunkSize > 0 {
		cfg.ChunkSize = b.ChunkSize
	}
	if b.VerifyEdges != nil {
		cfg.VerifyEdges = *b.VerifyEdges
	}
	return cfg
}

// Default returns the stock stamp plan.
func Default() Plan {
	c := carve.DefaultConfig()
	return Plan{
		ID:              "default",
		Name:            "Default",
		Kind:            KindStamps,
		Weight:          1,
		Width:           IntRange(c.Width),
		Height:          IntRange(c.Height),
		Buffer:          c.Buffer,
		Stamps:          c.StampCount,
		Radius:          FloatRange(c.Radius),
		InnerStamps:     IntRange(c.InnerStampCount),
		InnerRadius:     FloatRange(c.InnerRadius),
		LineThickness:   FloatRange(c.LineThickness),
		StampSpacing:    FloatRange(c.StampSpacing),
		SpacingAttempts: c.SpacingAttempts,
	}
}
