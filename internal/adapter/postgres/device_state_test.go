package repo

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/trm"
)

// Runs only against a real database: VENDORSYNC_TEST_DSN=postgres://...
func newTestRepo(t *testing.T) *DeviceStateRepo {
	t.Helper()
	dsn := os.Getenv("VENDORSYNC_TEST_DSN")
	if dsn == "" {
		t.Skip("VENDORSYNC_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New() error: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := NewDeviceStateRepo(trm.New(pool), "test-"+t.Name())
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM device_state WHERE device_id = $1`, repo.deviceID)
	})
	return repo
}

func TestDeviceStateRepo(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "sharingLocation"); !errors.Is(err, types.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := repo.Set(ctx, "sharingLocation", "true"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := repo.Set(ctx, "sharingLocation", "false"); err != nil {
		t.Fatalf("Set() upsert error: %v", err)
	}
	if v, err := repo.Get(ctx, "sharingLocation"); err != nil || v != "false" {
		t.Fatalf("Get() = %q, %v", v, err)
	}

	if err := repo.Delete(ctx, "sharingLocation"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.Get(ctx, "sharingLocation"); !errors.Is(err, types.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestDeviceStateRepo_RollbackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.tx.Do(ctx, func(ctx context.Context) error {
		if err := repo.Set(ctx, "favorites", "[1]"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := repo.Get(ctx, "favorites"); !errors.Is(err, types.ErrKeyNotFound) {
		t.Fatalf("rolled back write must not be visible, got %v", err)
	}

	err = repo.tx.Do(ctx, func(ctx context.Context) error {
		return repo.Set(ctx, "favorites", "[2]")
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if v, err := repo.Get(ctx, "favorites"); err != nil || v != "[2]" {
		t.Fatalf("Get() = %q, %v", v, err)
	}
}
