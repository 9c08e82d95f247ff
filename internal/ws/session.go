package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/internal/models"
)

const closeWriteWait = 5 * time.Second

var errNonTextFrame = errors.New("non-text frame")

// Session wraps one live websocket connection. Writes are serialized so
// fan-outs from different sender goroutines never interleave a frame.
type Session struct {
	conn    *websocket.Conn
	info    ConnInfo
	writeMu sync.Mutex

	closeOnce sync.Once
	onClose   func()
}

// NewSession wraps an upgraded connection. onClose runs exactly once, no
// matter how many paths observe the connection going away.
func NewSession(conn *websocket.Conn, info ConnInfo, onClose func()) *Session {
	return &Session{conn: conn, info: info, onClose: onClose}
}

// Info returns the handshake metadata for this connection.
func (s *Session) Info() ConnInfo {
	return s.info
}

// Deliver writes one event frame to the remote peer. An error means the
// connection is dead and the caller should prune this member.
func (s *Session) Deliver(event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// ReadText blocks until the next whole-message text frame arrives. A
// non-text frame is a protocol error: the connection is closed and an error
// returned.
func (s *Session) ReadText() (string, error) {
	messageType, payload, err := s.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if messageType != websocket.TextMessage {
		s.closeWithStatus(websocket.CloseUnsupportedData, "text frames only")
		return "", errNonTextFrame
	}
	return string(payload), nil
}

// Close tears the connection down and runs the onClose hook exactly once.
// Closing unblocks any pending ReadText immediately.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		if s.onClose != nil {
			s.onClose()
		}
	})
}

func (s *Session) closeWithStatus(code int, reason string) {
	s.writeMu.Lock()
	deadline := time.Now().Add(closeWriteWait)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	s.writeMu.Unlock()
	s.Close()
}
