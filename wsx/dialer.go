// Package wsx is the WebSocket transport adapter, built on
// github.com/coder/websocket.
package wsx

import (
	"context"
	"strings"

	"github.com/coder/websocket"

	"stampede/session"
)

// Dialer implements session.WSAdapter. Paths resolve against Base with the
// scheme translated to ws/wss.
type Dialer struct {
	Base string
	Opts *websocket.DialOptions
}

// NewDialer creates an adapter resolving relative paths against base.
func NewDialer(base string) *Dialer {
	return &Dialer{Base: base}
}

// Connect opens a WebSocket to path and returns the connection handle.
func (d *Dialer) Connect(ctx context.Context, path string) (session.WSConn, error) {
	ws, _, err := websocket.Dial(ctx, d.resolve(path), d.Opts)
	if err != nil {
		return nil, err
	}
	// Load scenarios exchange frames well above the library default read
	// limit.
	ws.SetReadLimit(maxFrameSize)
	return &Conn{ws: ws, path: path}, nil
}

const maxFrameSize = 1 << 20

func (d *Dialer) resolve(path string) string {
	target := path
	if !strings.Contains(path, "://") {
		target = strings.TrimSuffix(d.Base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	target = strings.Replace(target, "http://", "ws://", 1)
	target = strings.Replace(target, "https://", "wss://", 1)
	return target
}

// Conn wraps one live connection.
type Conn struct {
	ws   *websocket.Conn
	path string
}

// Path returns the path the connection was opened against.
func (c *Conn) Path() string {
	return c.path
}

// Send writes one text frame.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// Recv reads the next frame.
func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

// Close closes the connection with a normal status.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
