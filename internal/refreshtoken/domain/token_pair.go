package domain

import "time"

// IssuedToken pairs a persisted refresh token with its plain value.
// The plain value exists only in memory and is handed to the client once.
type IssuedToken struct {
	Token *RefreshToken
	Plain string
}

// TokenPair is the result of a successful rotation: a freshly minted access
// token plus the replacement refresh token.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
