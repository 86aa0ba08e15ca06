package server

// EventKind identifies what happened on a socket.
type EventKind int

const (
	// EventConnect is emitted once, right after the websocket handshake.
	EventConnect EventKind = iota
	// EventText carries a text message in Event.Text.
	EventText
	// EventBinary carries a binary message in Event.Data.
	EventBinary
	// EventClose is the last event of a socket. Code and Reason are those of
	// the close frame. Without one, Code is 1009 when the read limit was
	// exceeded and 1006 for any other read error, and Reason is the error.
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventText:
		return "text"
	case EventBinary:
		return "binary"
	case EventClose:
		return "close"
	}
	return "unknown"
}

// Event is a single thing that happened on one socket.
type Event struct {
	Socket *Socket
	Kind   EventKind
	Text   string
	Data   []byte
	Code   int
	Reason string
}
