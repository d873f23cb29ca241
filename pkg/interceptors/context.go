package interceptors

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	userEmailKey contextKey = "user_email"
	userRoleKey  contextKey = "user_role"
	requestIDKey contextKey = "request_id"
)

// GetUserIDFromContext returns the authenticated user id placed by the auth middleware.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// UserUUIDFromContext parses the authenticated user id.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, error) {
	raw, ok := GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("authentication required: %w", types.ErrUnauthenticated)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", types.ErrUnauthenticated)
	}
	return id, nil
}

// GetUserRoleFromContext returns the authenticated user's role.
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userRoleKey).(string)
	return v, ok && v != ""
}

// GetUserEmailFromContext returns the authenticated user's email.
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userEmailKey).(string)
	return v, ok && v != ""
}

// RequestIDFromContext returns the request id assigned by the request id middleware.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok
}

// WithUser stores an authenticated identity on the context. Used by the auth
// middleware and by handler tests.
func WithUser(ctx context.Context, userID, email, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, userEmailKey, email)
	return context.WithValue(ctx, userRoleKey, role)
}
