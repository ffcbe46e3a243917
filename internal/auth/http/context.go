// Package http provides the auth service's HTTP handlers and middleware.
package http

import (
	"context"

	authService "github.com/buiducnhanit/management-system/internal/auth/service"
)

// claimsKey is a context key type for storing access-token claims.
type claimsKey struct{}

// WithClaims stores validated access-token claims in the context. Called by
// the authentication middleware after a successful parse.
func WithClaims(ctx context.Context, claims *authService.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims retrieves validated access-token claims from the context.
// Returns (claims, true) if present, or (nil, false) if no claims were set.
func GetClaims(ctx context.Context) (*authService.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*authService.AccessClaims)
	return claims, ok
}
