package bus

import (
	"context"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/pkg/wsconn"
)

// Conn is one open push connection. Read blocks until the next frame.
type Conn interface {
	Read() ([]byte, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// WebSocket returns a Dialer backed by gorilla websocket connections.
func WebSocket(d *wsconn.Dialer) Dialer {
	return DialerFunc(func(ctx context.Context, url string) (Conn, error) {
		c, err := d.Dial(ctx, url)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Clock schedules the reconnect timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
