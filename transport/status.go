package transport

// Status is a Connection's position in its status machine (§4.2
// "Disconnected → Connecting → Connected → (GotEOF | Error) → Disconnected").
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusGotEOF
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusGotEOF:
		return "GotEOF"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}
