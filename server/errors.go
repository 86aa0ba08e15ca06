package server

import "errors"

var (
	// ErrServerClosed is returned by Close when the server was already closed.
	ErrServerClosed = errors.New("server closed")
)
