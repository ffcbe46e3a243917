package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/buiducnhanit/management-system/internal/auth/http"
	authService "github.com/buiducnhanit/management-system/internal/auth/service"
	authUseCase "github.com/buiducnhanit/management-system/internal/auth/usecase"
	"github.com/buiducnhanit/management-system/internal/http"
	identityDomain "github.com/buiducnhanit/management-system/internal/identity/domain"
	"github.com/buiducnhanit/management-system/internal/metrics"
	refreshRepository "github.com/buiducnhanit/management-system/internal/refreshtoken/repository"
	refreshUseCase "github.com/buiducnhanit/management-system/internal/refreshtoken/usecase"
)

// SecretService returns the refresh-token secret service.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// TokenCodec returns the JWT access token codec.
func (c *Container) TokenCodec() (authService.TokenCodec, error) {
	var err error
	c.tokenCodecInit.Do(func() {
		c.tokenCodec, err = authService.NewTokenCodec(c.config)
		if err != nil {
			c.initErrors["tokenCodec"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenCodec"]; exists {
		return nil, storedErr
	}
	return c.tokenCodec, nil
}

// RefreshTokenRepository returns the refresh token repository based on the
// database driver.
func (c *Container) RefreshTokenRepository() (refreshUseCase.RefreshTokenRepository, error) {
	var err error
	c.refreshTokenRepoInit.Do(func() {
		c.refreshTokenRepo, err = c.initRefreshTokenRepository()
		if err != nil {
			c.initErrors["refreshTokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["refreshTokenRepo"]; exists {
		return nil, storedErr
	}
	return c.refreshTokenRepo, nil
}

// RotationEngine returns the refresh-token rotation engine.
func (c *Container) RotationEngine() (refreshUseCase.RotationEngine, error) {
	var err error
	c.rotationEngineInit.Do(func() {
		c.rotationEngine, err = c.initRotationEngine()
		if err != nil {
			c.initErrors["rotationEngine"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rotationEngine"]; exists {
		return nil, storedErr
	}
	return c.rotationEngine, nil
}

// CleanupUseCase returns the idle-session cleanup use case.
func (c *Container) CleanupUseCase() (refreshUseCase.CleanupUseCase, error) {
	var err error
	c.cleanupUseCaseInit.Do(func() {
		c.cleanupUseCase, err = c.initCleanupUseCase()
		if err != nil {
			c.initErrors["cleanupUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cleanupUseCase"]; exists {
		return nil, storedErr
	}
	return c.cleanupUseCase, nil
}

// AuthUseCase returns the authentication use case.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// AuthEventConsumer returns the auth-side event consumer.
func (c *Container) AuthEventConsumer() (*authUseCase.EventConsumer, error) {
	var err error
	c.authEventConsumerInit.Do(func() {
		c.authEventConsumer, err = c.initAuthEventConsumer()
		if err != nil {
			c.initErrors["authEventConsumer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authEventConsumer"]; exists {
		return nil, storedErr
	}
	return c.authEventConsumer, nil
}

// AuthHTTPServer returns the auth service HTTP server.
func (c *Container) AuthHTTPServer() (*http.Server, error) {
	var err error
	c.authServerInit.Do(func() {
		c.authHTTPServer, err = c.initAuthHTTPServer()
		if err != nil {
			c.initErrors["authHTTPServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHTTPServer"]; exists {
		return nil, storedErr
	}
	return c.authHTTPServer, nil
}

// initRefreshTokenRepository creates the refresh token repository based on the
// database driver.
func (c *Container) initRefreshTokenRepository() (refreshUseCase.RefreshTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for refresh token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return refreshRepository.NewMySQLRefreshTokenRepository(db), nil
	case "postgres":
		return refreshRepository.NewPostgreSQLRefreshTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRotationEngine creates the rotation engine with all its dependencies.
func (c *Container) initRotationEngine() (refreshUseCase.RotationEngine, error) {
	tokenRepo, err := c.RefreshTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token repository for rotation engine: %w", err)
	}

	identities, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for rotation engine: %w", err)
	}

	tokenCodec, err := c.TokenCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get token codec for rotation engine: %w", err)
	}

	baseEngine := refreshUseCase.NewRotationEngine(
		c.config,
		tokenRepo,
		identities,
		c.SecretService(),
		tokenCodec,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for rotation engine: %w", err)
		}
		return refreshUseCase.NewRotationEngineWithMetrics(baseEngine, businessMetrics), nil
	}

	return baseEngine, nil
}

// initCleanupUseCase creates the idle-session cleanup use case.
func (c *Container) initCleanupUseCase() (refreshUseCase.CleanupUseCase, error) {
	tokenRepo, err := c.RefreshTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token repository for cleanup use case: %w", err)
	}

	return refreshUseCase.NewCleanupUseCase(c.config, tokenRepo, c.Logger()), nil
}

// initAuthUseCase creates the auth use case with all its dependencies.
func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for auth use case: %w", err)
	}

	identities, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for auth use case: %w", err)
	}

	engine, err := c.RotationEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation engine for auth use case: %w", err)
	}

	tokenCodec, err := c.TokenCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get token codec for auth use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for auth use case: %w", err)
	}

	return authUseCase.NewAuthUseCase(
		txManager,
		identities,
		engine,
		tokenCodec,
		outboxRepo,
		c.Mailer(),
		c.Logger(),
	), nil
}

// initAuthEventConsumer creates the auth-side event consumer.
func (c *Container) initAuthEventConsumer() (*authUseCase.EventConsumer, error) {
	eventBus, err := c.EventBus()
	if err != nil {
		return nil, fmt.Errorf("failed to get event bus for auth event consumer: %w", err)
	}

	identities, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for auth event consumer: %w", err)
	}

	engine, err := c.RotationEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation engine for auth event consumer: %w", err)
	}

	return authUseCase.NewEventConsumer(eventBus, identities, engine, c.Logger()), nil
}

// initAuthHTTPServer creates the auth HTTP server with all routes and
// middleware wired.
func (c *Container) initAuthHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for auth http server: %w", err)
	}

	auth, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for auth http server: %w", err)
	}

	identities, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for auth http server: %w", err)
	}

	tokenCodec, err := c.TokenCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get token codec for auth http server: %w", err)
	}

	handler := authHTTP.NewAuthHandler(auth, logger)
	authenticated := authHTTP.AuthenticationMiddleware(tokenCodec, identities, logger)
	adminOnly := authHTTP.RequireRoleMiddleware(identityDomain.RoleAdmin, logger)

	// Credential endpoints run before authentication, so the limiter keys on
	// client IP rather than identity. A single limiter is shared across the
	// rate-limited endpoints.
	var limiter gin.HandlerFunc
	if c.config.RateLimitEnabled {
		limiter = authHTTP.RateLimitMiddleware(
			c.config.RateLimitRequestsPerSec,
			c.config.RateLimitBurst,
			logger,
		)
	}
	rateLimited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{limiter, handler}
	}

	var extraMiddleware []gin.HandlerFunc
	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for auth http server: %w", err)
		}
		extraMiddleware = append(extraMiddleware,
			metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace))
	}

	register := func(router *gin.Engine) {
		v1 := router.Group("/v1")

		authGroup := v1.Group("/auth")
		authGroup.POST("/register", handler.RegisterHandler)
		authGroup.POST("/login", rateLimited(handler.LoginHandler)...)
		authGroup.POST("/refresh-token", rateLimited(handler.RefreshTokenHandler)...)
		authGroup.POST("/forgot-password", rateLimited(handler.ForgotPasswordHandler)...)
		authGroup.POST("/reset-password", handler.ResetPasswordHandler)
		authGroup.POST("/confirm-email", handler.ConfirmEmailHandler)
		authGroup.POST("/logout", authenticated, handler.LogoutHandler)
		authGroup.POST("/change-password", authenticated, handler.ChangePasswordHandler)

		users := v1.Group("/users", authenticated, adminOnly)
		users.GET("", handler.ListUsersHandler)
		users.POST("/:id/roles", handler.AddRoleHandler)
		users.DELETE("/:id/roles", handler.RemoveRoleHandler)
		users.POST("/:id/lock", handler.LockUserHandler)
		users.POST("/:id/unlock", handler.UnlockUserHandler)
	}

	server := http.NewServer(
		db,
		http.Options{
			Host:            c.config.ServerHost,
			Port:            c.config.AuthServerPort,
			GinMode:         c.config.GetGinMode(),
			CORSEnabled:     c.config.CORSEnabled,
			CORSOrigins:     c.config.CORSAllowOrigins,
			ExtraMiddleware: extraMiddleware,
		},
		logger,
		register,
	)

	return server, nil
}
