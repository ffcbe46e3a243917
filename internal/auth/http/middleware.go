package http

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authService "github.com/buiducnhanit/management-system/internal/auth/service"
	apperrors "github.com/buiducnhanit/management-system/internal/errors"
	"github.com/buiducnhanit/management-system/internal/httputil"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
)

// IdentityReader is the narrow identity surface the middleware needs to check
// the security stamp and lockout state behind a parsed access token.
type IdentityReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error)
}

// AuthenticationMiddleware validates the Bearer access token and stores its
// claims in the request context.
//
// Beyond the signature and expiry check done by the codec, the middleware
// loads the identity and compares the security stamp: a token minted before a
// logout or password change carries a stale stamp and is rejected. Locked
// identities are rejected with 423.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer").
func AuthenticationMiddleware(
	codec authService.TokenCodec,
	identities IdentityReader,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		claims, err := codec.Parse(plainToken)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		user, err := identities.FindByID(c.Request.Context(), userID)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if user.IsLocked() {
			httputil.HandleErrorGin(c, identityDomain.ErrUserLocked, logger)
			c.Abort()
			return
		}

		if user.SecurityStamp != claims.SecurityStamp {
			logger.Debug("authentication failed: stale security stamp",
				slog.String("user_id", claims.UserID))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRoleMiddleware rejects authenticated requests whose access token does
// not carry the given role. MUST run after AuthenticationMiddleware.
func RequireRoleMiddleware(role string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c.Request.Context())
		if !ok || claims == nil {
			logger.Debug("authorization failed: no claims in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !slices.Contains(claims.Roles, role) {
			logger.Debug("authorization failed: missing role",
				slog.String("user_id", claims.UserID),
				slog.String("role", role))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
