package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// wsConnKey is the reserved assigns key holding the live WebSocket
// connection. Forks do not inherit it.
const wsConnKey = "ws_conn"

// WSConn is a live WebSocket connection handle.
type WSConn interface {
	Path() string
	Send(ctx context.Context, data []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// WSAdapter is the external WebSocket transport used to open connections.
type WSAdapter interface {
	Connect(ctx context.Context, path string) (WSConn, error)
}

// WSConn returns the connection stored in assigns, or nil.
func (s *Session) WSConn() WSConn {
	conn, _ := s.Assigns[wsConnKey].(WSConn)
	return conn
}

// WSConnectAction opens a WebSocket and stores the handle in assigns under
// "ws_conn". Errors if already connected unless Reconnect is set, in which
// case the old connection is closed first.
type WSConnectAction struct {
	Path      string
	Reconnect bool
}

func (a WSConnectAction) Key() string {
	return "ws_connect " + a.Path
}

func (a WSConnectAction) Run(ctx context.Context, s *Session) (*Session, error) {
	if s.WS == nil {
		return s, ErrNoWSAdapter
	}
	if existing := s.WSConn(); existing != nil {
		if !a.Reconnect {
			return s, ErrAlreadyConnected
		}
		_ = existing.Close()
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout())
	defer cancel()

	conn, err := s.WS.Connect(ctx, a.Path)
	if err != nil {
		return s, err
	}
	s.Assigns[wsConnKey] = conn
	return s, nil
}

// WSSendOptions control a single send.
type WSSendOptions struct {
	// AwaitAck reads and discards one frame after the send before the
	// timing sample is taken.
	AwaitAck bool
}

// WSSendAction writes one message on the live connection and records a
// timing sample under "ws_send <path>".
type WSSendAction struct {
	Msg  any
	Opts WSSendOptions
}

func (a WSSendAction) Key() string {
	return fmt.Sprintf("ws_send %v", a.Msg)
}

func (a WSSendAction) Run(ctx context.Context, s *Session) (*Session, error) {
	conn := s.WSConn()
	if conn == nil {
		return s, ErrNotConnected
	}
	data, err := encodeWSMessage(a.Msg)
	if err != nil {
		return s, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout())
	defer cancel()

	clock := s.clock()
	start := clock.Now()
	if err := conn.Send(ctx, data); err != nil {
		return s, err
	}
	if a.Opts.AwaitAck {
		if _, err := conn.Recv(ctx); err != nil {
			return s, err
		}
	}
	s.AddMetric("ws_send "+conn.Path(), clock.Since(start))
	return s, nil
}

// WSRecvOptions control a single receive. Timeout falls back to the session
// timeout when zero.
type WSRecvOptions struct {
	Timeout time.Duration
}

// WSRecvAction blocks for the next frame and records it under the action
// key. A missed deadline yields ErrWSRecvTimeout.
type WSRecvAction struct {
	Opts WSRecvOptions
}

func (a WSRecvAction) Key() string {
	return "ws_recv"
}

func (a WSRecvAction) Run(ctx context.Context, s *Session) (*Session, error) {
	conn := s.WSConn()
	if conn == nil {
		return s, ErrNotConnected
	}
	timeout := a.Opts.Timeout
	if timeout <= 0 {
		timeout = s.Timeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	frame, err := conn.Recv(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return s, ErrWSRecvTimeout
		}
		return s, err
	}
	s.AddResult(a, frame)
	return s, nil
}

// encodeWSMessage turns a message into bytes: []byte and string pass
// through, everything else is JSON-encoded.
func encodeWSMessage(msg any) ([]byte, error) {
	switch m := msg.(type) {
	case []byte:
		return m, nil
	case string:
		return []byte(m), nil
	default:
		return json.Marshal(m)
	}
}

// WSConnect builds and runs a WebSocket connect action.
func (s *Session) WSConnect(path string) *Session {
	return s.Exec(WSConnectAction{Path: path})
}

// WSReconnect replaces any existing connection with a fresh one.
func (s *Session) WSReconnect(path string) *Session {
	return s.Exec(WSConnectAction{Path: path, Reconnect: true})
}

// WSSend builds and runs a WebSocket send action.
func (s *Session) WSSend(msg any, opts ...WSSendOptions) *Session {
	var o WSSendOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return s.Exec(WSSendAction{Msg: msg, Opts: o})
}

// WSRecv builds and runs a WebSocket receive action.
func (s *Session) WSRecv(opts ...WSRecvOptions) *Session {
	var o WSRecvOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return s.Exec(WSRecvAction{Opts: o})
}
