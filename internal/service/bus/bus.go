package bus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc/panics"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/metrics"
)

// Handler receives every location delta in arrival order.
type Handler func(models.LocationDelta)

// Unsubscribe removes a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

type subscriber struct {
	id uint64
	fn Handler
}

// LocationBus multiplexes one websocket connection to /ws/locations across
// any number of subscribers and reconnects after drops.
type LocationBus struct {
	url              string
	dialer           Dialer
	clock            Clock
	policy           backoff.BackOff
	handshakeTimeout time.Duration
	l                logger.Logger

	mu        sync.Mutex
	state     types.BusState
	conn      Conn
	reconnect Timer
	// gen is bumped by Disconnect; goroutines started under an older
	// generation must not touch the state.
	gen         uint64
	dialCtx     context.Context
	cancelDial  context.CancelFunc
	subs        []*subscriber
	nextID      uint64
	onConnected []func()
}

type Option func(*LocationBus)

func WithClock(c Clock) Option {
	return func(b *LocationBus) { b.clock = c }
}

func WithReconnectPolicy(p backoff.BackOff) Option {
	return func(b *LocationBus) { b.policy = p }
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(b *LocationBus) { b.handshakeTimeout = d }
}

func New(url string, dialer Dialer, l logger.Logger, opts ...Option) *LocationBus {
	b := &LocationBus{
		url:              url,
		dialer:           dialer,
		clock:            realClock{},
		policy:           NewReconnectPolicy(StrategyConstant, DefaultReconnectDelay, 0),
		handshakeTimeout: 10 * time.Second,
		l:                l,
		state:            types.BusDisconnected,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.dialCtx, b.cancelDial = context.WithCancel(context.Background())

	return b
}

// Subscribe registers fn and makes sure a connection is open or being
// opened. It never blocks on the network and never fails: connection
// problems are handled by the reconnect loop.
func (b *LocationBus) Subscribe(fn Handler) Unsubscribe {
	b.mu.Lock()
	b.nextID++
	s := &subscriber{id: b.nextID, fn: fn}
	b.subs = append(b.subs, s)
	count := len(b.subs)
	b.ensureConnectedLocked()
	b.mu.Unlock()

	metrics.BusSubscribers.Set(float64(count))

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(s) })
	}
}

// OnConnected registers a hook run after every successful (re)connect,
// before the first frame of that connection is dispatched.
func (b *LocationBus) OnConnected(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onConnected = append(b.onConnected, fn)
}

// Disconnect closes the connection, cancels any pending reconnect and
// drops all subscribers. A later Subscribe starts over.
func (b *LocationBus) Disconnect() {
	b.mu.Lock()
	b.gen++
	conn := b.conn
	b.conn = nil
	if b.reconnect != nil {
		b.reconnect.Stop()
		b.reconnect = nil
	}
	b.cancelDial()
	b.dialCtx, b.cancelDial = context.WithCancel(context.Background())
	b.subs = nil
	b.state = types.BusDisconnected
	b.policy.Reset()
	b.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	metrics.SetBool(metrics.BusConnected, false)
	metrics.BusSubscribers.Set(0)
	b.l.Info(wrap.WithAction(context.Background(), types.ActionBusDisconnected), "location bus disconnected")
}

func (b *LocationBus) State() types.BusState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *LocationBus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *LocationBus) remove(s *subscriber) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, other := range b.subs {
		if other != s {
			subs = append(subs, other)
		}
	}
	b.subs = subs
	count := len(subs)
	b.mu.Unlock()

	metrics.BusSubscribers.Set(float64(count))
}

// ensureConnectedLocked starts a dial unless a connection exists, is being
// opened, or a reconnect is already pending. b.mu must be held.
func (b *LocationBus) ensureConnectedLocked() {
	if b.state != types.BusDisconnected || b.reconnect != nil {
		return
	}
	b.state = types.BusConnecting
	go b.connect(b.gen, b.dialCtx)
}

func (b *LocationBus) connect(gen uint64, parent context.Context) {
	ctx := wrap.WithAction(context.Background(), types.ActionBusConnecting)
	b.l.Debug(ctx, "connecting to location bus", "url", b.url)

	dialCtx, cancel := context.WithTimeout(parent, b.handshakeTimeout)
	conn, err := b.dial(dialCtx)
	cancel()

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		b.state = types.BusDisconnected
		b.scheduleReconnectLocked()
		b.mu.Unlock()
		b.l.Warn(ctx, "location bus connect failed", "url", b.url, "error", err.Error())
		return
	}
	b.conn = conn
	b.state = types.BusConnected
	b.policy.Reset()
	hooks := slices.Clone(b.onConnected)
	b.mu.Unlock()

	metrics.SetBool(metrics.BusConnected, true)
	b.l.Info(wrap.WithAction(ctx, types.ActionBusConnected), "location bus connected", "url", b.url)

	for _, hook := range hooks {
		var pc panics.Catcher
		pc.Try(hook)
		if r := pc.Recovered(); r != nil {
			b.l.Error(ctx, "on-connected hook panicked", r.AsError())
		}
	}

	b.readLoop(gen, conn)
}

// dial treats a panicking dialer like a failed dial.
func (b *LocationBus) dial(ctx context.Context) (conn Conn, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		conn, err = b.dialer.Dial(ctx, b.url)
	})
	if r := pc.Recovered(); r != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, r.AsError())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: dialer returned no connection", types.ErrTransport)
	}
	return conn, nil
}

func (b *LocationBus) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.Read()
		if err != nil {
			b.handleClosed(gen, conn, err)
			return
		}
		b.handleMessage(data)
	}
}

func (b *LocationBus) handleClosed(gen uint64, conn Conn, err error) {
	b.mu.Lock()
	if gen != b.gen || b.conn != conn {
		b.mu.Unlock()
		return
	}
	b.conn = nil
	b.state = types.BusDisconnected
	b.scheduleReconnectLocked()
	b.mu.Unlock()

	_ = conn.Close()
	metrics.SetBool(metrics.BusConnected, false)

	ctx := wrap.WithAction(context.Background(), types.ActionBusDisconnected)
	if errors.Is(err, context.Canceled) {
		b.l.Debug(ctx, "location bus connection closed")
		return
	}
	b.l.Warn(ctx, "location bus connection lost", "error", err.Error())
}

// scheduleReconnectLocked arms the reconnect timer unless one is already
// pending. b.mu must be held.
func (b *LocationBus) scheduleReconnectLocked() bool {
	if b.reconnect != nil {
		return false
	}

	delay := b.policy.NextBackOff()
	if delay == backoff.Stop {
		b.policy.Reset()
		delay = b.policy.NextBackOff()
		if delay == backoff.Stop {
			delay = DefaultReconnectDelay
		}
	}

	gen := b.gen
	b.reconnect = b.clock.AfterFunc(delay, func() { b.fireReconnect(gen) })
	metrics.BusReconnectsTotal.Inc()

	b.l.Debug(wrap.WithAction(context.Background(), types.ActionBusReconnect), "reconnect scheduled", "delay", delay.String())
	return true
}

func (b *LocationBus) fireReconnect(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.reconnect = nil
	if b.state != types.BusDisconnected {
		b.mu.Unlock()
		return
	}
	b.state = types.BusConnecting
	parent := b.dialCtx
	b.mu.Unlock()

	b.connect(gen, parent)
}

func (b *LocationBus) handleMessage(data []byte) {
	ctx := wrap.WithAction(context.Background(), types.ActionBusMessage)

	delta, err := decodeDelta(data)
	if err != nil {
		metrics.BusMessagesTotal.WithLabelValues("malformed").Inc()
		b.l.Warn(ctx, "dropping malformed location message", "error", err.Error())
		return
	}
	metrics.BusMessagesTotal.WithLabelValues("ok").Inc()

	b.mu.Lock()
	subs := slices.Clone(b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(ctx, s, delta)
	}
}

func (b *LocationBus) deliver(ctx context.Context, s *subscriber, delta models.LocationDelta) {
	var pc panics.Catcher
	pc.Try(func() { s.fn(delta) })
	if r := pc.Recovered(); r != nil {
		ctx = wrap.WithAction(wrap.WithVendorID(ctx, delta.VendorID), types.ActionBusDispatch)
		b.l.Error(ctx, "subscriber panicked", r.AsError(), "subscriber", s.id)
	}
}
