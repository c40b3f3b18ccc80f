package logger

import (
	"context"

	"go.uber.org/zap"
)

// requestFields are attached once per request and stamped on every log line.
type requestFields struct {
	requestID string
	userID    int64
}

type ctxKey struct{}

func fieldsFrom(ctx context.Context) requestFields {
	f, _ := ctx.Value(ctxKey{}).(requestFields)
	return f
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	f := fieldsFrom(ctx)
	f.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, f)
}

// WithUserID tags later log lines with the authenticated user.
func WithUserID(ctx context.Context, userID int64) context.Context {
	f := fieldsFrom(ctx)
	f.userID = userID
	return context.WithValue(ctx, ctxKey{}, f)
}

func RequestIDFrom(ctx context.Context) string {
	return fieldsFrom(ctx).requestID
}

// FromCtx returns the global logger with request_id and user_id added when known.
func FromCtx(ctx context.Context) *zap.Logger {
	f := fieldsFrom(ctx)

	fields := make([]zap.Field, 0, 2)
	if f.requestID != "" {
		fields = append(fields, zap.String("request_id", f.requestID))
	}
	if f.userID != 0 {
		fields = append(fields, zap.Int64("user_id", f.userID))
	}
	if len(fields) == 0 {
		return L()
	}
	return L().With(fields...)
}
