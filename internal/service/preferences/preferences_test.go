package preferences

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", types.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestSharingFlag(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := New(kv)

	if on, err := s.SharingFlag(ctx); err != nil || on {
		t.Fatalf("unset flag: got %v, %v", on, err)
	}

	if err := s.SetSharingFlag(ctx, true); err != nil {
		t.Fatalf("SetSharingFlag() error: %v", err)
	}
	if kv.data[KeySharing] != "true" {
		t.Fatalf("stored %q, want \"true\"", kv.data[KeySharing])
	}
	if on, _ := s.SharingFlag(ctx); !on {
		t.Fatalf("expected flag set")
	}

	if err := s.SetSharingFlag(ctx, false); err != nil {
		t.Fatalf("SetSharingFlag() error: %v", err)
	}
	if kv.data[KeySharing] != "false" {
		t.Fatalf("stop must write \"false\", got %q", kv.data[KeySharing])
	}
}

func TestToken(t *testing.T) {
	ctx := context.Background()
	s := New(newMemKV())

	if _, err := s.Token(ctx); !errors.Is(err, types.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}

	if err := s.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("SetToken() error: %v", err)
	}
	if tok, err := s.Token(ctx); err != nil || tok != "abc" {
		t.Fatalf("Token() = %q, %v", tok, err)
	}

	if err := s.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken() error: %v", err)
	}
	if _, err := s.Token(ctx); !errors.Is(err, types.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing after clear, got %v", err)
	}
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := New(kv)

	ids, err := s.Favorites(ctx)
	if err != nil || len(ids) != 0 {
		t.Fatalf("empty favorites: got %v, %v", ids, err)
	}

	for _, id := range []int64{5, 7, 5} {
		if err := s.AddFavorite(ctx, id); err != nil {
			t.Fatalf("AddFavorite(%d) error: %v", id, err)
		}
	}
	if kv.data[KeyFavorites] != "[5,7]" {
		t.Fatalf("stored %q, want [5,7]", kv.data[KeyFavorites])
	}

	if ok, _ := s.IsFavorite(ctx, 7); !ok {
		t.Fatalf("7 should be a favorite")
	}

	if err := s.RemoveFavorite(ctx, 5); err != nil {
		t.Fatalf("RemoveFavorite() error: %v", err)
	}
	ids, _ = s.Favorites(ctx)
	if !slices.Equal(ids, []int64{7}) {
		t.Fatalf("got %v, want [7]", ids)
	}

	if err := s.ClearFavorites(ctx); err != nil {
		t.Fatalf("ClearFavorites() error: %v", err)
	}
	ids, _ = s.Favorites(ctx)
	if len(ids) != 0 {
		t.Fatalf("expected empty after clear, got %v", ids)
	}

	if err := s.AddFavorite(ctx, 0); !errors.Is(err, types.ErrInvalidVendor) {
		t.Fatalf("expected ErrInvalidVendor, got %v", err)
	}
}

func TestFavorites_CorruptValue(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyFavorites] = "{oops"

	if _, err := New(kv).Favorites(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNotificationSettings(t *testing.T) {
	tests := []struct {
		name        string
		stored      map[string]string
		wantEnabled bool
		wantRadius  int
	}{
		{name: "defaults", stored: map[string]string{}, wantEnabled: true, wantRadius: 20},
		{name: "disabled", stored: map[string]string{KeyNotificationsEnabled: "false"}, wantEnabled: false, wantRadius: 20},
		{name: "anything but false is enabled", stored: map[string]string{KeyNotificationsEnabled: "yes"}, wantEnabled: true, wantRadius: 20},
		{name: "custom radius", stored: map[string]string{KeyNotificationRadius: "150"}, wantEnabled: true, wantRadius: 150},
		{name: "garbage radius", stored: map[string]string{KeyNotificationRadius: "far"}, wantEnabled: true, wantRadius: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMemKV()
			for k, v := range tt.stored {
				kv.data[k] = v
			}

			got, err := New(kv).NotificationSettings(context.Background())
			if err != nil {
				t.Fatalf("NotificationSettings() error: %v", err)
			}
			if got.Enabled != tt.wantEnabled || got.Radius != tt.wantRadius {
				t.Fatalf("got %+v, want enabled=%v radius=%d", got, tt.wantEnabled, tt.wantRadius)
			}
		})
	}
}

func TestSetNotificationRadius_Invalid(t *testing.T) {
	s := New(newMemKV())
	if err := s.SetNotificationRadius(context.Background(), 0); !errors.Is(err, types.ErrInvalidRadius) {
		t.Fatalf("expected ErrInvalidRadius, got %v", err)
	}
}

func TestStorageError(t *testing.T) {
	kv := newMemKV()
	kv.err = errors.New("disk full")

	if _, err := New(kv).SharingFlag(context.Background()); err == nil {
		t.Fatalf("expected storage error to surface")
	}
}

type ctxKey struct{}

// recordingTx marks the context so the store can tell calls made inside Do.
type recordingTx struct {
	calls int
}

func (r *recordingTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(context.WithValue(ctx, ctxKey{}, true))
}

type txCheckingKV struct {
	*memKV
	outside int
}

func (k *txCheckingKV) Get(ctx context.Context, key string) (string, error) {
	if ctx.Value(ctxKey{}) == nil {
		k.outside++
	}
	return k.memKV.Get(ctx, key)
}

func (k *txCheckingKV) Set(ctx context.Context, key, value string) error {
	if ctx.Value(ctxKey{}) == nil {
		k.outside++
	}
	return k.memKV.Set(ctx, key, value)
}

func TestFavorites_UseTransactor(t *testing.T) {
	kv := &txCheckingKV{memKV: newMemKV()}
	tx := &recordingTx{}
	s := New(kv).WithTransactor(tx)
	ctx := context.Background()

	if err := s.AddFavorite(ctx, 4); err != nil {
		t.Fatalf("AddFavorite() error: %v", err)
	}
	if err := s.RemoveFavorite(ctx, 4); err != nil {
		t.Fatalf("RemoveFavorite() error: %v", err)
	}

	if tx.calls != 2 {
		t.Fatalf("expected 2 transactions, got %d", tx.calls)
	}
	if kv.outside != 0 {
		t.Fatalf("%d store calls ran outside the transaction", kv.outside)
	}
}
