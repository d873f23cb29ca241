package common

import (
	"fmt"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

// Auth sentinels wrap the shared taxonomy so the HTTP layer can map them
// without knowing about auth.
var (
	ErrUserAlreadyExists  = fmt.Errorf("user already exists: %w", types.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", types.ErrUnauthenticated)
	ErrUserNotFound       = fmt.Errorf("user not found: %w", types.ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("session not found or expired: %w", types.ErrUnauthenticated)
	ErrInvalidToken       = fmt.Errorf("invalid token: %w", types.ErrUnauthenticated)
	ErrInvalidInput       = fmt.Errorf("invalid input: %w", types.ErrBadRequest)
	ErrUserInactive       = fmt.Errorf("account is deactivated: %w", types.ErrForbidden)
	ErrEmailNotVerified   = fmt.Errorf("email address is not verified by the provider: %w", types.ErrUnauthenticated)
	ErrOAuthUnavailable   = fmt.Errorf("oauth provider unavailable: %w", types.ErrUnauthenticated)
)

// Roles a user can hold.
const (
	RoleStudent  = types.RoleStudent
	RoleLandlord = types.RoleLandlord
	RoleAdmin    = types.RoleAdmin
)
