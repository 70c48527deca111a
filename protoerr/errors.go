// Package protoerr defines the error taxonomy shared across the session,
// engine and sync pool layers: Transport, Protocol, Auth, Persistence and
// Policy kinds, as sentinel values that callers compare with errors.Is
// and wrap with fmt.Errorf("...: %w", ...) at each boundary.
package protoerr

import "errors"

// Auth / Policy kind
var (
	ErrInvalidNickname          = errors.New("invalid nickname")
	ErrPlayerAlreadyAuthenticated = errors.New("player already authenticated")
	ErrPlayerByNicknameNotFound = errors.New("player by nickname not found")
)

// Persistence kind
var (
	ErrBodyNotFound   = errors.New("body not found")
	ErrDBFileCreate   = errors.New("failed to create instance database file")
	ErrDBOpen         = errors.New("failed to open instance database")
)

// Protocol kind
var (
	ErrUnknownMessageKind = errors.New("unknown message kind")
	ErrMalformedFrame     = errors.New("malformed frame")
)

// Transport kind
var (
	ErrConnectionClosed = errors.New("connection closed")
)
