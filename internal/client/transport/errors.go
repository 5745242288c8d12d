package transport

import "errors"

// Ошибки установки соединения
var (
	// ErrConnectionTimeout indicates that the server did not complete the
	// handshake within the configured timeout
	ErrConnectionTimeout = errors.New("connection timeout")

	// ErrConnectionFailed indicates a transport-level connection failure
	ErrConnectionFailed = errors.New("connection failed")
)
