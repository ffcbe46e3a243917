// Package service provides technical services for authentication operations.
//
// This package implements the opaque secret generator used for refresh and
// action tokens, and the JWT codec that mints and parses access tokens.
package service

import (
	"time"

	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
)

// SecretService defines operations for opaque token generation and hashing.
// Implementations must use cryptographically secure random generation and
// fast hashing algorithms suitable for high-frequency lookups (e.g., SHA-256).
type SecretService interface {
	// GenerateSecret creates a new cryptographically secure random secret.
	// Returns both the plain text secret (handed to the client exactly once)
	// and the hashed version (the only form ever persisted).
	GenerateSecret() (plainSecret string, secretHash string, err error)

	// HashSecret hashes a plain text secret using SHA-256.
	// Used for lookups by comparing hashes.
	HashSecret(plainSecret string) string
}

// AccessClaims are the claims carried by a minted access token.
type AccessClaims struct {
	UserID        string
	Roles         []string
	SecurityStamp string
	ExpiresAt     time.Time
}

// TokenCodec mints and parses signed access tokens. Minting fails only on
// configuration problems, which the constructor surfaces at startup; per-call
// failures indicate a broken signing key and are fatal for the request.
type TokenCodec interface {
	// Mint produces a signed access token for the user carrying its id,
	// roles and current security stamp. Returns the token and its expiry.
	Mint(user *identityDomain.User) (token string, expiresAt time.Time, err error)

	// Parse validates a signed access token (signature, expiry, issuer and
	// audience) and returns its claims.
	Parse(token string) (*AccessClaims, error)
}
