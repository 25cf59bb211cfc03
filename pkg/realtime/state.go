package realtime

// ConnState describes the health of a push channel
type ConnState int

const (
	// StateDisconnected means no channel is open and none is being opened
	StateDisconnected ConnState = iota
	// StateConnecting means the channel handshake is in progress
	StateConnecting
	// StateConnected means the channel is live and delivering events
	StateConnected
)

// String returns the lowercase name of the state
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
