package app

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/vendor-location-sync/config"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/badger"
	repo "github.com/Temutjin2k/vendor-location-sync/internal/adapter/postgres"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/preferences"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	"github.com/Temutjin2k/vendor-location-sync/pkg/postgres"
	"github.com/Temutjin2k/vendor-location-sync/pkg/trm"
)

// storage is the device key-value store picked by storage.driver.
type storage struct {
	kv    preferences.KVStore
	tx    preferences.Transactor
	close func() error
	name  string
	log   logger.Logger
}

func openStorage(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*storage, error) {
	switch cfg.Driver {
	case config.StorageBadger:
		store, err := badger.Open(cfg.Badger.Path, cfg.Badger.InMemory)
		if err != nil {
			log.Error(ctx, "Failed to open badger store", err, "path", cfg.Badger.Path)
			return nil, err
		}
		return &storage{kv: store, close: store.Close, name: config.StorageBadger, log: log}, nil

	case config.StoragePostgres:
		postgresDB, err := postgres.New(ctx, cfg.Postgres, cfg.Postgres.MaxConns)
		if err != nil {
			log.Error(ctx, "Failed to setup database", err)
			return nil, err
		}

		txManager := trm.New(postgresDB.Pool)
		deviceRepo := repo.NewDeviceStateRepo(txManager, cfg.DeviceID)
		if err := deviceRepo.EnsureSchema(ctx); err != nil {
			postgresDB.Close()
			return nil, err
		}

		closeDB := func() error {
			postgresDB.Close()
			return nil
		}
		return &storage{kv: deviceRepo, tx: txManager, close: closeDB, name: config.StoragePostgres, log: log}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (s *storage) Close(ctx context.Context) {
	if err := s.close(); err != nil {
		s.log.Warn(ctx, "Failed to close storage", "driver", s.name, "error", err.Error())
	}
}
