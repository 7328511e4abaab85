package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	return line
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "vendorsync-test", LevelInfo)

	ctx := wrap.WithLogCtx(context.Background(), wrap.LogCtx{Action: "start_sharing", VendorID: 7, RequestID: "r-1"})
	l.Info(ctx, "location sharing started")

	line := decodeLine(t, &buf)
	if line["message"] != "location sharing started" || line["service"] != "vendorsync-test" {
		t.Fatalf("unexpected line %v", line)
	}
	if line["action"] != "start_sharing" || line["vendor_id"] != float64(7) || line["request_id"] != "r-1" {
		t.Fatalf("context fields missing: %v", line)
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("timestamp missing: %v", line)
	}
}

func TestLogger_ErrorCarriesWrappedCtx(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelInfo)

	err := wrap.Error(wrap.WithSessionID(context.Background(), "s-9"), errors.New("push failed"))
	l.Error(wrap.WithRequestID(context.Background(), "r-2"), "failed", err)

	line := decodeLine(t, &buf)
	if line["error"] != "push failed" || line["session_id"] != "s-9" || line["request_id"] != "r-2" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelWarn)

	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at WARN: %s", buf.String())
	}
	l.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn not written")
	}
}

func TestValidateLogLevel(t *testing.T) {
	for _, lvl := range []string{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if !ValidateLogLevel(lvl) {
			t.Errorf("%s must be valid", lvl)
		}
	}
	if ValidateLogLevel("info") || ValidateLogLevel("TRACE") {
		t.Fatal("only upper-case known levels are valid")
	}
}
