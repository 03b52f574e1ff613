package obs

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used to correlate op timings.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request id carried by ctx, if any.
func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(RequestIDKey).(string)
	return reqID
}

func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	logger := FromContext(ctx)
	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			logger.Warn("op", slog.String("req_id", reqID), slog.String("op", name),
				slog.Int64("dur_ms", dur.Milliseconds()), slog.String("error", (*errp).Error()))
			return
		}
		logger.Debug("op", slog.String("req_id", reqID), slog.String("op", name),
			slog.Int64("dur_ms", dur.Milliseconds()))
	}
}
