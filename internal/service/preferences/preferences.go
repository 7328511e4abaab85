package preferences

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
)

// Storage keys shared with the mobile client.
const (
	KeySharing              = "sharingLocation"
	KeyToken                = "token"
	KeyFavorites            = "favorites"
	KeyNotificationsEnabled = "notifications_enabled"
	KeyNotificationRadius   = "notification_radius"

	DefaultNotificationRadius = 20
)

// KVStore is the on-device key-value storage. Get returns
// types.ErrKeyNotFound for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Transactor groups KVStore calls made with the context it passes to fn.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type Service struct {
	kv KVStore
	tx Transactor
	// serializes read-modify-write of the favorites list in this process
	favMu sync.Mutex
}

func New(kv KVStore) *Service {
	return &Service{kv: kv, tx: noTx{}}
}

// WithTransactor makes favorites updates atomic across processes that share
// the store.
func (s *Service) WithTransactor(tx Transactor) *Service {
	if tx != nil {
		s.tx = tx
	}
	return s
}

func (s *Service) get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, types.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// SharingFlag reports whether sharing was active when the app last ran.
func (s *Service) SharingFlag(ctx context.Context) (bool, error) {
	const op = "Preferences.SharingFlag"
	val, _, err := s.get(ctx, KeySharing)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return val == "true", nil
}

func (s *Service) SetSharingFlag(ctx context.Context, active bool) error {
	const op = "Preferences.SetSharingFlag"
	if err := s.kv.Set(ctx, KeySharing, strconv.FormatBool(active)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Token returns the stored bearer token or types.ErrTokenMissing.
func (s *Service) Token(ctx context.Context) (string, error) {
	const op = "Preferences.Token"
	val, ok, err := s.get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !ok || val == "" {
		return "", types.ErrTokenMissing
	}
	return val, nil
}

func (s *Service) SetToken(ctx context.Context, token string) error {
	const op = "Preferences.SetToken"
	if err := s.kv.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) ClearToken(ctx context.Context) error {
	const op = "Preferences.ClearToken"
	if err := s.kv.Delete(ctx, KeyToken); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Favorites returns the favorite vendor ids; an unset list is empty.
func (s *Service) Favorites(ctx context.Context) ([]int64, error) {
	const op = "Preferences.Favorites"
	val, ok, err := s.get(ctx, KeyFavorites)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok || val == "" {
		return []int64{}, nil
	}

	var ids []int64
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (s *Service) saveFavorites(ctx context.Context, ids []int64) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyFavorites, string(data))
}

// AddFavorite appends id unless it is already a favorite.
func (s *Service) AddFavorite(ctx context.Context, id int64) error {
	const op = "Preferences.AddFavorite"
	if id <= 0 {
		return fmt.Errorf("%s: %w", op, types.ErrInvalidVendor)
	}

	s.favMu.Lock()
	defer s.favMu.Unlock()

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		ids, err := s.Favorites(ctx)
		if err != nil {
			return err
		}
		if slices.Contains(ids, id) {
			return nil
		}
		return s.saveFavorites(ctx, append(ids, id))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) RemoveFavorite(ctx context.Context, id int64) error {
	const op = "Preferences.RemoveFavorite"

	s.favMu.Lock()
	defer s.favMu.Unlock()

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		ids, err := s.Favorites(ctx)
		if err != nil {
			return err
		}
		ids = slices.DeleteFunc(ids, func(v int64) bool { return v == id })
		return s.saveFavorites(ctx, ids)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) IsFavorite(ctx context.Context, id int64) (bool, error) {
	ids, err := s.Favorites(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

func (s *Service) ClearFavorites(ctx context.Context) error {
	const op = "Preferences.ClearFavorites"

	s.favMu.Lock()
	defer s.favMu.Unlock()

	if err := s.kv.Delete(ctx, KeyFavorites); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NotificationSettings reads the proximity settings. Anything but an explicit
// "false" means enabled; a missing or unparsable radius falls back to 20 m.
func (s *Service) NotificationSettings(ctx context.Context) (models.NotificationSettings, error) {
	const op = "Preferences.NotificationSettings"
	settings := models.NotificationSettings{
		Enabled: true,
		Radius:  DefaultNotificationRadius,
	}

	enabled, _, err := s.get(ctx, KeyNotificationsEnabled)
	if err != nil {
		return settings, fmt.Errorf("%s: %w", op, err)
	}
	settings.Enabled = enabled != "false"

	radius, ok, err := s.get(ctx, KeyNotificationRadius)
	if err != nil {
		return settings, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		if r, err := strconv.Atoi(radius); err == nil && r > 0 {
			settings.Radius = r
		}
	}

	return settings, nil
}

func (s *Service) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	const op = "Preferences.SetNotificationsEnabled"
	if err := s.kv.Set(ctx, KeyNotificationsEnabled, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) SetNotificationRadius(ctx context.Context, radius int) error {
	const op = "Preferences.SetNotificationRadius"
	if radius <= 0 {
		return fmt.Errorf("%s: %w", op, types.ErrInvalidRadius)
	}
	if err := s.kv.Set(ctx, KeyNotificationRadius, strconv.Itoa(radius)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetNotificationSettings writes both settings.
func (s *Service) SetNotificationSettings(ctx context.Context, settings models.NotificationSettings) error {
	if err := s.SetNotificationRadius(ctx, settings.Radius); err != nil {
		return err
	}
	return s.SetNotificationsEnabled(ctx, settings.Enabled)
}
