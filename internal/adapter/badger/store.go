package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
)

const keyPrefix = "device:"

// Store is the embedded on-device key-value store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at dir. With inMemory set dir is ignored
// and nothing is written to disk.
func Open(dir string, inMemory bool) (*Store, error) {
	const op = "BadgerStore.Open"

	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "BadgerStore.Get"
	var value string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return types.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, types.ErrKeyNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "BadgerStore.Set"
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "BadgerStore.Delete"
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyPrefix + key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
