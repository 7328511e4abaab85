package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrConnClosed = errors.New("connection is closed")

// Dialer opens client websocket connections.
type Dialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
}

func NewDialer(handshakeTimeout time.Duration) *Dialer {
	return &Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
}

// Dial connects to url (ws:// or wss://).
func (d *Dialer) Dial(ctx context.Context, url string) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return &Conn{conn: conn}, nil
}

// Conn is a receive-oriented client connection.
// Read must be called from one goroutine; Close may be called from any.
type Conn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Read blocks until the next text frame arrives. Binary frames are skipped.
func (c *Conn) Read() ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return nil, ErrConnClosed
			}
			return nil, fmt.Errorf("read failed: %w", err)
		}
		if kind == websocket.TextMessage {
			return data, nil
		}
	}
}

// IsNormalClose reports whether err is a clean close from the peer.
func IsNormalClose(err error) bool {
	return errors.Is(err, ErrConnClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close sends a close frame and closes the socket. Safe to call twice.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
