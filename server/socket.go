package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/JohanWinther/wsmux"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const closeGracePeriod = time.Second

// frame is what the per-socket reader produces before it is turned into an
// Event.
type frame struct {
	kind   EventKind
	data   []byte
	code   int
	reason string
}

// Socket is one accepted websocket connection.
type Socket struct {
	// ID is a random identifier assigned on accept.
	ID string

	conn    *websocket.Conn
	writeMu sync.Mutex
	reader  *wsmux.Reader[frame]

	// only touched by the reader goroutine
	opened bool
	closed bool
}

func newSocket(conn *websocket.Conn) *Socket {
	return &Socket{
		ID:   uuid.NewString(),
		conn: conn,
	}
}

// RemoteAddr returns the address of the peer.
func (s *Socket) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// WriteText sends a text message.
func (s *Socket) WriteText(text string) error {
	return s.write(websocket.TextMessage, []byte(text))
}

// WriteBinary sends a binary message.
func (s *Socket) WriteBinary(data []byte) error {
	return s.write(websocket.BinaryMessage, data)
}

// Close sends a close frame. The peer's reply ends the socket's events with
// an EventClose.
func (s *Socket) Close(code int, reason string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	err := s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(closeGracePeriod))
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

func (s *Socket) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// readFrame is the Reader function of the socket. The first call reports
// the connection itself. Any read error, close frame or not, is reported as
// a close frame once and followed by io.EOF so the connection is never read
// again after it.
func (s *Socket) readFrame() (frame, error) {
	if !s.opened {
		s.opened = true
		return frame{kind: EventConnect}, nil
	}
	if s.closed {
		return frame{}, io.EOF
	}
	messageType, data, err := s.conn.ReadMessage()
	if err != nil {
		s.closed = true
		return closeFrame(err), nil
	}
	if messageType == websocket.BinaryMessage {
		return frame{kind: EventBinary, data: data}, nil
	}
	return frame{kind: EventText, data: data}, nil
}

// closeFrame turns the error that ended a connection into its last frame.
// Errors without a close frame from the peer are reported as 1009 when the
// read limit was hit and 1006 otherwise.
func closeFrame(err error) frame {
	var ce *websocket.CloseError
	switch {
	case errors.As(err, &ce):
		return frame{kind: EventClose, code: ce.Code, reason: ce.Text}
	case errors.Is(err, websocket.ErrReadLimit):
		return frame{kind: EventClose, code: websocket.CloseMessageTooBig, reason: err.Error()}
	}
	return frame{kind: EventClose, code: websocket.CloseAbnormalClosure, reason: err.Error()}
}

// event maps a frame to an Event and stops the socket's source after the
// close event.
func (s *Socket) event(f frame) (Event, bool, bool) {
	ev := Event{Socket: s, Kind: f.kind}
	switch f.kind {
	case EventText:
		ev.Text = string(f.data)
	case EventBinary:
		ev.Data = f.data
	case EventClose:
		ev.Code = f.code
		ev.Reason = f.reason
	}
	return ev, false, f.kind == EventClose
}

// source wraps the socket as a Source of Events.
func (s *Socket) source(log zerolog.Logger, onDone func()) wsmux.Source[Event] {
	s.reader = wsmux.NewReader(s.readFrame,
		wsmux.WithReaderLogger[frame](log.With().Str("socket", s.ID).Logger()),
		wsmux.WithOnDone(func(*wsmux.Reader[frame]) {
			onDone()
		}))
	return wsmux.NewMapper(s.reader, s.event)
}
