// Package transport specifies the out-of-scope collaborator boundary: the
// TLS/HTTP-upgrade handshake that turns a raw connection into a framed,
// bidirectional message stream. Session and serverloop code only ever see
// the Listener/Stream interfaces below, never a concrete websocket type,
// so the rest of the server runs unchanged against the in-memory fake
// used by the session package's own tests.
package transport

import "context"

// Stream is a framed, bidirectional message stream. One ReadMessage call
// returns one application frame (a single JSON document in this server);
// WriteMessage sends one. Close is idempotent.
type Stream interface {
	ReadMessage() ([]byte, error)
	WriteMessage([]byte) error
	Close() error
}

// Listener accepts upgraded streams. Accept blocks until a client
// completes the handshake (TLS negotiation, if any, then HTTP upgrade) or
// ctx is done.
type Listener interface {
	Accept(ctx context.Context) (Stream, error)
	Close() error
}
