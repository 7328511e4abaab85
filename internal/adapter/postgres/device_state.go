package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/postgres"
	"github.com/Temutjin2k/vendor-location-sync/pkg/trm"
)

// DeviceStateRepo keeps the device preferences in Postgres, one row per
// (device, key). Several devices can share one database. Calls made inside
// tx.Do join that transaction.
type DeviceStateRepo struct {
	tx       *trm.Manager
	deviceID string
}

func NewDeviceStateRepo(tx *trm.Manager, deviceID string) *DeviceStateRepo {
	return &DeviceStateRepo{
		tx:       tx,
		deviceID: deviceID,
	}
}

// EnsureSchema creates the table if it does not exist.
func (r *DeviceStateRepo) EnsureSchema(ctx context.Context) error {
	const op = "DeviceStateRepo.EnsureSchema"
	query := `
		CREATE TABLE IF NOT EXISTS device_state (
			device_id  TEXT        NOT NULL,
			key        TEXT        NOT NULL,
			value      TEXT        NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (device_id, key)
		);`

	if _, err := r.tx.Querier(ctx).Exec(ctx, query); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// Get reads key. Inside a transaction the row stays locked until it ends.
func (r *DeviceStateRepo) Get(ctx context.Context, key string) (string, error) {
	const op = "DeviceStateRepo.Get"
	query := `
		SELECT value
		FROM device_state
		WHERE device_id = $1 AND key = $2`
	if trm.InTx(ctx) {
		query += ` FOR UPDATE`
	}

	var value string
	if err := r.tx.Querier(ctx).QueryRow(ctx, query, r.deviceID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.ErrKeyNotFound
		}
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return value, nil
}

func (r *DeviceStateRepo) Set(ctx context.Context, key, value string) error {
	const op = "DeviceStateRepo.Set"
	query := `
		INSERT INTO device_state(device_id, key, value)
		VALUES($1, $2, $3)
		ON CONFLICT (device_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now();`

	if _, err := r.tx.Querier(ctx).Exec(ctx, query, r.deviceID, key, value); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

func (r *DeviceStateRepo) Delete(ctx context.Context, key string) error {
	const op = "DeviceStateRepo.Delete"
	query := `
		DELETE FROM device_state
		WHERE device_id = $1 AND key = $2;`

	if _, err := r.tx.Querier(ctx).Exec(ctx, query, r.deviceID, key); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}
