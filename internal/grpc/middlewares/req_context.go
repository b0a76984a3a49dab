package middleware

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// ContextMiddleware tags every call with a fresh request id.
func ContextMiddleware(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	ctx = context.WithValue(ctx, requestIDKey, uuid.NewString())
	return handler(ctx, req)
}

// RequestID returns the id set by ContextMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
