package host

// State is the connection manager's position in its lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateRegistering
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistering:
		return "registering"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// StateChange is emitted on every transition.
type StateChange struct {
	Old    State
	New    State
	Reason string
}

// NotifyFunc receives state-change notifications. Callbacks run on the
// manager's goroutine and must not call back into the manager.
type NotifyFunc func(StateChange)
