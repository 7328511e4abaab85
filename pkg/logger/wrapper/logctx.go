package wrap

import (
	"context"
)

type (
	// LogCtx holds contextual information for logging
	LogCtx struct {
		Action    string
		VendorID  int64
		SessionID string
		RequestID string
	}

	// logCtxKeyStruct is an unexported type for context keys defined in this package.
	logCtxKeyStruct struct{}
)

// LogCtxKey is the key for log context values
var LogCtxKey = &logCtxKeyStruct{}

// WithLogCtx returns a new context with the provided LogCtx merged over the existing one
func WithLogCtx(ctx context.Context, newLc LogCtx) context.Context {
	if lc, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		if newLc.Action == "" {
			newLc.Action = lc.Action
		}
		if newLc.VendorID == 0 {
			newLc.VendorID = lc.VendorID
		}
		if newLc.SessionID == "" {
			newLc.SessionID = lc.SessionID
		}
		if newLc.RequestID == "" {
			newLc.RequestID = lc.RequestID
		}
	}
	return context.WithValue(ctx, LogCtxKey, newLc)
}

func current(ctx context.Context) LogCtx {
	lc, _ := ctx.Value(LogCtxKey).(LogCtx)
	return lc
}

// WithAction adds or updates the Action in the LogCtx within the context
func WithAction(ctx context.Context, action string) context.Context {
	lc := current(ctx)
	lc.Action = action
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithVendorID adds or updates the VendorID in the LogCtx within the context
func WithVendorID(ctx context.Context, vendorID int64) context.Context {
	lc := current(ctx)
	lc.VendorID = vendorID
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithSessionID adds or updates the SessionID in the LogCtx within the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	lc := current(ctx)
	lc.SessionID = sessionID
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithRequestID adds or updates the RequestID in the LogCtx within the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := current(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, LogCtxKey, lc)
}
