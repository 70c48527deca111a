package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neotene/spacebuild/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsStream adapts a *websocket.Conn to Stream, reproducing the teacher's
// readPump/writePump deadline discipline (read deadline refreshed on
// every pong, write deadline set per write, periodic keepalive ping)
// inline in ReadMessage/WriteMessage instead of as background pumps, so
// the session package drives the loop itself.
type wsStream struct {
	conn       *websocket.Conn
	lastPingAt time.Time
}

func newWSStream(conn *websocket.Conn) *wsStream {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &wsStream{conn: conn, lastPingAt: time.Now()}
}

func (s *wsStream) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

func (s *wsStream) WriteMessage(data []byte) error {
	if time.Since(s.lastPingAt) > pingPeriod {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return err
		}
		s.lastPingAt = time.Now()
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}

// WebSocketListener upgrades incoming HTTP connections to websocket
// streams behind an http.Server, optionally TLS-terminated by the caller.
type WebSocketListener struct {
	accepted chan *wsStream
	closed   chan struct{}
}

// NewWebSocketListener returns a Listener whose http.Handler (ServeHTTP)
// must be mounted on the HTTP server that owns the listening socket
// (plain or wrapped in crypto/tls via ListenAndServeTLS) — the TLS
// handshake itself is handled entirely by net/http, matching spec.md's
// "transport handshake is an external collaborator" stance.
func NewWebSocketListener() *WebSocketListener {
	return &WebSocketListener{
		accepted: make(chan *wsStream),
		closed:   make(chan struct{}),
	}
}

func (l *WebSocketListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	select {
	case l.accepted <- newWSStream(conn):
	case <-l.closed:
		conn.Close()
	}
}

func (l *WebSocketListener) Accept(ctx context.Context) (Stream, error) {
	select {
	case s := <-l.accepted:
		return s, nil
	case <-l.closed:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *WebSocketListener) Close() error {
	close(l.closed)
	return nil
}
