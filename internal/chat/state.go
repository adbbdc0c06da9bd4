package chat

// ConnectionState is the lifecycle of a room's channel connection.
type ConnectionState int

const (
	// StateIdle means no connection has been attempted, or the session
	// was explicitly left.
	StateIdle ConnectionState = iota

	// StateConnecting means the handshake is in flight.
	StateConnecting

	// StateConnected means events flow both ways.
	StateConnected

	// StateDisconnected means the connection was closed by either peer.
	StateDisconnected

	// StateReconnecting means a transient retry is in progress.
	StateReconnecting

	// StateFailed means reconnect attempts were exhausted.
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StateChange is emitted by the channel whenever the connection moves
// between states. Err is set when a failure caused the transition.
type StateChange struct {
	State ConnectionState
	Err   error
}
