package adapter

// State is the externally observable lifecycle state of an adapter.
type State int

const (
	StateDisabled State = iota
	StateIdle
	StateStarting
	StateRunning
	StateStopping
	StateDisposed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}
