// Package game provides the level viewer loop and its state.
package game

// State represents the current viewer state.
type State int

const (
	// StateLoading waits for a level to finish generating.
	StateLoading State = iota
	// StateIdle has the agent standing still.
	StateIdle
	// StateWalking has the agent following a path.
	StateWalking
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateWalking:
		return "walking"
	default:
		return "unknown"
	}
}
