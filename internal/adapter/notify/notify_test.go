package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
)

type countingSender struct {
	calls int
	err   error
}

func (s *countingSender) Notify(context.Context, models.Notification) error {
	s.calls++
	return s.err
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(logger.New(&buf, "test", logger.LevelInfo))

	if err := s.Notify(context.Background(), models.Notification{Title: "Vendedor próximo", Body: "A está a 12m de si", Distance: 12.4}); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Vendedor próximo") || !strings.Contains(out, `"distance_m":12`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	failing := &countingSender{err: errors.New("broker down")}
	ok := &countingSender{}

	err := Multi{failing, ok}.Notify(context.Background(), models.Notification{})
	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Fatalf("every sender must be called once, got %d and %d", failing.calls, ok.calls)
	}
}
