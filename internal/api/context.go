package api

import (
	"context"
	"errors"
)

// userIDContextKey is the context key for the authenticated user's ID.
type userIDContextKey struct{}

// ErrNoUserInContext indicates no authenticated user was found in the context.
var ErrNoUserInContext = errors.New("no user in context")

// WithUserID returns a new context with the authenticated user ID attached.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, id)
}

// UserIDFromContext extracts the authenticated user ID from the context.
// Returns ErrNoUserInContext if not present or empty.
func UserIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDContextKey{}).(string)
	if !ok || id == "" {
		return "", ErrNoUserInContext
	}
	return id, nil
}

// MustUserIDFromContext extracts the user ID or panics.
// Use only when middleware guarantees an authenticated user.
func MustUserIDFromContext(ctx context.Context) string {
	id, err := UserIDFromContext(ctx)
	if err != nil {
		panic("user not in context: middleware misconfiguration")
	}
	return id
}
