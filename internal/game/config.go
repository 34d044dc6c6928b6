package game

import (
	"github.com/go-logr/logr"

	"github.com/samdwyer/cavern/internal/plan"
)

// Config holds viewer configuration options.
type Config struct {
	// Seed for random number generation. Used for reproducible level generation.
	// A seed of 0 means a random seed will be generated.
	Seed int64
	Plan plan.Plan

	// Speed is the agent's walking speed in world units per second.
	Speed float64
	// Clearance is the closest-wall distance the agent asks for when planning.
	Clearance float64

	Log logr.Logger
}

// DefaultConfig returns the stock viewer settings for p.
func DefaultConfig(p plan.Plan) Config {
	return Config{
		Plan:  p,
		Speed: 4,
		Log:   logr.Discard(),
	}
}
