package bus

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	"github.com/Temutjin2k/vendor-location-sync/pkg/wsconn"
)

type fakeConn struct {
	frames    chan []byte
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) Read() ([]byte, error) {
	select {
	case data := <-c.frames:
		return data, nil
	case err := <-c.errs:
		return nil, err
	case <-c.done:
		return nil, io.EOF
	}
}

// fail makes the pending Read return err, like a socket error event.
func (c *fakeConn) fail(err error) {
	c.errs <- err
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) send(s string) {
	c.frames <- []byte(s)
}

type fakeDialer struct {
	mu    sync.Mutex
	calls int
	conns []*fakeConn
	err   error
	panic bool
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.panic {
		panic("socket constructor failed")
	}
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) Conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

type fakeTimer struct {
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return true
}

func (t *fakeTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeClock struct {
	mu     sync.Mutex
	delays []time.Duration
	funcs  []func()
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{}
	c.delays = append(c.delays, d)
	c.funcs = append(c.funcs, f)
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.funcs)
}

// Fire runs the i-th scheduled callback the way a real timer would.
func (c *fakeClock) Fire(i int) {
	c.mu.Lock()
	f := c.funcs[i]
	c.mu.Unlock()
	go f()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestBus(d Dialer, clock *fakeClock) *LocationBus {
	return New("ws://backend/ws/locations", d, logger.Nop(), WithClock(clock))
}

func TestSubscribe_OpensSingleConnection(t *testing.T) {
	dialer := &fakeDialer{}
	b := newTestBus(dialer, &fakeClock{})
	defer b.Disconnect()

	b.Subscribe(func(models.LocationDelta) {})
	b.Subscribe(func(models.LocationDelta) {})
	b.Subscribe(func(models.LocationDelta) {})

	waitFor(t, "connected", func() bool { return b.State() == types.BusConnected })

	if got := dialer.Calls(); got != 1 {
		t.Fatalf("expected 1 dial, got %d", got)
	}
	if got := b.SubscriberCount(); got != 3 {
		t.Fatalf("expected 3 subscribers, got %d", got)
	}
}

func TestDispatch_InOrderAndIsolatedFromPanics(t *testing.T) {
	dialer := &fakeDialer{}
	b := newTestBus(dialer, &fakeClock{})
	defer b.Disconnect()

	got := make(chan models.LocationDelta, 8)
	b.Subscribe(func(models.LocationDelta) { panic("boom") })
	b.Subscribe(func(d models.LocationDelta) { got <- d })

	waitFor(t, "connected", func() bool { return b.State() == types.BusConnected })
	conn := dialer.Conn(0)

	conn.send(`{"vendor_id":1,"lat":40.0,"lng":-8.0}`)
	conn.send(`{"vendor_id":2,"lat":41.0,"lng":-8.5}`)
	conn.send(`{"vendor_id":1,"remove":true}`)

	want := []models.LocationDelta{
		{VendorID: 1, Lat: 40.0, Lng: -8.0},
		{VendorID: 2, Lat: 41.0, Lng: -8.5},
		{VendorID: 1, Remove: true},
	}
	for i, w := range want {
		select {
		case d := <-got:
			if d != w {
				t.Fatalf("delta %d: got %+v, want %+v", i, d, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("delta %d not delivered", i)
		}
	}

	if b.State() != types.BusConnected {
		t.Fatalf("panicking subscriber must not drop the connection")
	}
}

func TestDispatch_MalformedFramesDropped(t *testing.T) {
	dialer := &fakeDialer{}
	b := newTestBus(dialer, &fakeClock{})
	defer b.Disconnect()

	got := make(chan models.LocationDelta, 8)
	b.Subscribe(func(d models.LocationDelta) { got <- d })

	waitFor(t, "connected", func() bool { return b.State() == types.BusConnected })
	conn := dialer.Conn(0)

	conn.send(`not json`)
	conn.send(`{"lat":1,"lng":2}`)
	conn.send(`{"vendor_id":3,"lat":1}`)
	conn.send(`{"vendor_id":4,"lat":1,"lng":2}`)

	select {
	case d := <-got:
		if d.VendorID != 4 {
			t.Fatalf("expected only the valid delta, got %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("valid delta not delivered")
	}

	select {
	case d := <-got:
		t.Fatalf("unexpected extra delta %+v", d)
	case <-time.After(50 * time.Millisecond):
	}

	if dialer.Calls() != 1 {
		t.Fatalf("malformed frames must not cause a reconnect")
	}
}

func TestReconnect_SingleInFlight(t *testing.T) {
	dialer := &fakeDialer{}
	clock := &fakeClock{}
	b := newTestBus(dialer, clock)
	defer b.Disconnect()

	b.Subscribe(func(models.LocationDelta) {})
	waitFor(t, "connected", func() bool { return b.State() == types.BusConnected })

	// error event followed by the close event of the same socket
	conn := dialer.Conn(0)
	conn.fail(errors.New("connection reset by peer"))
	waitFor(t, "reconnect scheduled", func() bool { return clock.Scheduled() == 1 })
	conn.Close()
	time.Sleep(20 * time.Millisecond)
	if got := clock.Scheduled(); got != 1 {
		t.Fatalf("a second reconnect must not be scheduled while one is pending, got %d", got)
	}

	// New subscribers wait for the pending reconnect instead of dialing.
	b.Subscribe(func(models.LocationDelta) {})
	time.Sleep(20 * time.Millisecond)
	if clock.Scheduled() != 1 || dialer.Calls() != 1 {
		t.Fatalf("expected 1 timer and 1 dial, got %d timers and %d dials", clock.Scheduled(), dialer.Calls())
	}
	if clock.delays[0] != DefaultReconnectDelay {
		t.Fatalf("expected %v reconnect delay, got %v", DefaultReconnectDelay, clock.delays[0])
	}

	clock.Fire(0)
	waitFor(t, "reconnected", func() bool { return b.State() == types.BusConnected && dialer.Calls() == 2 })
}

func TestConnectFailure_NotSurfaced(t *testing.T) {
	tests := []struct {
		name   string
		dialer *fakeDialer
	}{
		{name: "dial error", dialer: &fakeDialer{err: errors.New("connection refused")}},
		{name: "dialer panics", dialer: &fakeDialer{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{}
			b := newTestBus(tt.dialer, clock)
			defer b.Disconnect()

			unsubscribe := b.Subscribe(func(models.LocationDelta) {})
			if unsubscribe == nil {
				t.Fatalf("Subscribe must always return an unsubscribe func")
			}

			waitFor(t, "reconnect scheduled", func() bool { return clock.Scheduled() == 1 })
			if b.State() != types.BusDisconnected {
				t.Fatalf("expected %s, got %s", types.BusDisconnected, b.State())
			}
		})
	}
}

func TestUnsubscribe_FromInsideCallback(t *testing.T) {
	dialer := &fakeDialer{}
	b := newTestBus(dialer, &fakeClock{})
	defer b.Disconnect()

	var (
		mu       sync.Mutex
		selfHits int
	)
	other := make(chan models.LocationDelta, 8)

	var unsubscribe Unsubscribe
	unsubscribe = b.Subscribe(func(models.LocationDelta) {
		mu.Lock()
		selfHits++
		mu.Unlock()
		unsubscribe()
		unsubscribe()
	})
	b.Subscribe(func(d models.LocationDelta) { other <- d })

	waitFor(t, "connected", func() bool { return b.State() == types.BusConnected })
	conn := dialer.Conn(0)
	conn.send(`{"vendor_id":1,"lat":1,"lng":1}`)
	conn.send(`{"vendor_id":2,"lat":2,"lng":2}`)

	for i := 0; i < 2; i++ {
		select {
		case <-other:
		case <-time.After(2 * time.Second):
			t.Fatalf("remaining subscriber missed delta %d", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if selfHits != 1 {
		t.Fatalf("unsubscribed handler called %d times, want 1", selfHits)
	}
	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber left, got %d", b.SubscriberCount())
	}
}

func TestDisconnect_CancelsPendingReconnect(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("down")}
	clock := &fakeClock{}
	b := newTestBus(dialer, clock)

	b.Subscribe(func(models.LocationDelta) {})
	waitFor(t, "reconnect scheduled", func() bool { return clock.Scheduled() == 1 })

	b.Disconnect()

	if !clock.timers[0].Stopped() {
		t.Fatalf("pending reconnect timer must be stopped")
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("Disconnect must drop subscribers")
	}

	// A stale timer firing after Disconnect does nothing.
	clock.Fire(0)
	time.Sleep(20 * time.Millisecond)
	if dialer.Calls() != 1 {
		t.Fatalf("stale reconnect must not dial, got %d dials", dialer.Calls())
	}
}

func TestOnConnected_RunsOnEveryConnect(t *testing.T) {
	dialer := &fakeDialer{}
	clock := &fakeClock{}
	b := newTestBus(dialer, clock)
	defer b.Disconnect()

	hooks := make(chan struct{}, 4)
	b.OnConnected(func() { hooks <- struct{}{} })

	b.Subscribe(func(models.LocationDelta) {})
	waitFor(t, "first hook", func() bool { return len(hooks) == 1 })

	dialer.Conn(0).Close()
	waitFor(t, "reconnect scheduled", func() bool { return clock.Scheduled() == 1 })
	clock.Fire(0)

	waitFor(t, "second hook", func() bool { return len(hooks) == 2 })
}

func TestLocationBus_WebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/locations" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"vendor_id":7,"lat":38.72,"lng":-9.14}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	url, err := URLFromBase(srv.URL, "/ws/locations")
	if err != nil {
		t.Fatalf("URLFromBase() error: %v", err)
	}
	if !strings.HasPrefix(url, "ws://") {
		t.Fatalf("expected ws:// url, got %s", url)
	}

	b := New(url, WebSocket(wsconn.NewDialer(2*time.Second)), logger.Nop())
	defer b.Disconnect()

	got := make(chan models.LocationDelta, 1)
	b.Subscribe(func(d models.LocationDelta) { got <- d })

	select {
	case d := <-got:
		if d.VendorID != 7 || d.Lat != 38.72 || d.Lng != -9.14 {
			t.Fatalf("unexpected delta %+v", d)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no delta received over websocket")
	}
}
