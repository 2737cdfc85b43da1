package session

import "errors"

var (
	// ErrJoinTimeout indicates a forked child was not ready before the
	// session timeout. The child is terminated and nothing is merged.
	ErrJoinTimeout = errors.New("join timeout")

	// ErrWSRecvTimeout indicates no WebSocket frame arrived in time.
	ErrWSRecvTimeout = errors.New("websocket recv timeout")

	// ErrAlreadyConnected is returned by a connect without reconnect=true
	// while a connection handle is still present.
	ErrAlreadyConnected = errors.New("websocket already connected")

	// ErrNotConnected is returned by send/recv without a prior connect.
	ErrNotConnected = errors.New("websocket not connected")

	// ErrNoHTTPAdapter indicates the session has no HTTP transport wired.
	ErrNoHTTPAdapter = errors.New("no http adapter configured")

	// ErrNoWSAdapter indicates the session has no WebSocket transport wired.
	ErrNoWSAdapter = errors.New("no websocket adapter configured")

	// ErrNotRegistered indicates a callback name with no registry entry.
	ErrNotRegistered = errors.New("callback not registered")

	// ErrNilSession indicates a user callback returned a nil session.
	ErrNilSession = errors.New("callback returned nil session")
)
