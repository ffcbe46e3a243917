package service

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/buiducnhanit/management-system/internal/config"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// Supported signing methods.
const (
	SigningMethodHS256   = "hs256"
	SigningMethodEd25519 = "ed25519"
)

// accessTokenClaims is the JWT claim set minted by the codec.
type accessTokenClaims struct {
	Roles         []string `json:"roles"`
	SecurityStamp string   `json:"security_stamp"`
	jwt.RegisteredClaims
}

// jwtCodec implements TokenCodec over golang-jwt. The signing key is parsed
// once at construction; a bad key is a startup error, never a per-request one.
type jwtCodec struct {
	method     jwt.SigningMethod
	signKey    any
	verifyKey  any
	issuer     string
	audience   string
	expiration time.Duration
	now        func() time.Time
}

// NewTokenCodec creates a TokenCodec from the application configuration.
// Returns an error when the signing method is unknown or the key material
// is missing or malformed.
func NewTokenCodec(cfg *config.Config) (TokenCodec, error) {
	if cfg.JWTSigningKey == "" {
		return nil, errors.New("jwt signing key is required")
	}

	codec := &jwtCodec{
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		expiration: cfg.AccessTokenExpiration,
		now:        time.Now,
	}

	switch cfg.JWTSigningMethod {
	case SigningMethodHS256:
		codec.method = jwt.SigningMethodHS256
		codec.signKey = []byte(cfg.JWTSigningKey)
		codec.verifyKey = []byte(cfg.JWTSigningKey)
	case SigningMethodEd25519:
		parsed, err := jwt.ParseEdPrivateKeyFromPEM([]byte(cfg.JWTSigningKey))
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse ed25519 signing key")
		}
		privateKey, ok := parsed.(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("signing key is not an ed25519 private key")
		}
		codec.method = jwt.SigningMethodEdDSA
		codec.signKey = privateKey
		codec.verifyKey = privateKey.Public()
	default:
		return nil, errors.New("unsupported jwt signing method: " + cfg.JWTSigningMethod)
	}

	return codec, nil
}

// Mint produces a signed access token carrying the user's id, roles and
// current security stamp.
func (c *jwtCodec) Mint(user *identityDomain.User) (string, time.Time, error) {
	now := c.now().UTC()
	expiresAt := now.Add(c.expiration)

	claims := accessTokenClaims{
		Roles:         user.Roles,
		SecurityStamp: user.SecurityStamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.signKey)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, "failed to sign access token")
	}

	return token, expiresAt, nil
}

// Parse validates a signed access token and returns its claims.
// Returns ErrUnauthorized for any invalid, expired or tampered token.
func (c *jwtCodec) Parse(token string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithIssuedAt(),
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		options = append(options, jwt.WithAudience(c.audience))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(
		token,
		&accessTokenClaims{},
		func(t *jwt.Token) (any, error) {
			return c.verifyKey, nil
		},
	)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*accessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrUnauthorized
	}

	return &AccessClaims{
		UserID:        claims.Subject,
		Roles:         claims.Roles,
		SecurityStamp: claims.SecurityStamp,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}
