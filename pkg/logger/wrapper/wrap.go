package wrap

import (
	"context"
	"errors"
)

// Error wraps an error with the current LogCtx from the context
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	// If already wrapped, keep the innermost log context unless ctx has a newer one
	var e *errorWithLogCtx
	if errors.As(err, &e) {
		if x, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
			return &errorWithLogCtx{err: err, logCtx: x}
		}
		return err
	}

	return &errorWithLogCtx{
		err:    err,
		logCtx: current(ctx),
	}
}
