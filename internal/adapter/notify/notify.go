package notify

import (
	"context"
	"errors"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
)

type Sender interface {
	Notify(ctx context.Context, n models.Notification) error
}

// LogSender writes notifications to the log. Used when no notification
// agent is attached to the device.
type LogSender struct {
	l logger.Logger
}

func NewLogSender(l logger.Logger) *LogSender {
	return &LogSender{l: l}
}

func (s *LogSender) Notify(ctx context.Context, n models.Notification) error {
	s.l.Info(ctx, n.Title, "body", n.Body, "distance_m", int64(n.Distance+0.5))
	return nil
}

// Multi delivers to every sender and joins their errors.
type Multi []Sender

func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
