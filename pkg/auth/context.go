// Package auth resolves the calling user from the session cookie and carries
// the user id through request contexts.
//
// Example usage in a handler:
//
//	userID, err := auth.RequireUserID(r.Context())
//	if err != nil {
//	    // unreachable behind RequireAuth
//	}
package auth

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for the authenticated user's id.
const UserIDKey contextKey = "user_id"

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user id from the context.
// Returns 0 and false if the request is not authenticated.
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// RequireUserID extracts the user id and returns ErrUnauthenticated if missing.
func RequireUserID(ctx context.Context) (int64, error) {
	userID, ok := GetUserID(ctx)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context: %w", apperrors.ErrUnauthenticated)
	}
	return userID, nil
}
