// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authService "github.com/buiducnhanit/management-system/internal/auth/service"
	authUseCase "github.com/buiducnhanit/management-system/internal/auth/usecase"
	"github.com/buiducnhanit/management-system/internal/config"
	"github.com/buiducnhanit/management-system/internal/database"
	"github.com/buiducnhanit/management-system/internal/events/bus"
	eventsUseCase "github.com/buiducnhanit/management-system/internal/events/usecase"
	"github.com/buiducnhanit/management-system/internal/http"
	identityService "github.com/buiducnhanit/management-system/internal/identity/service"
	identityUseCase "github.com/buiducnhanit/management-system/internal/identity/usecase"
	"github.com/buiducnhanit/management-system/internal/mail"
	"github.com/buiducnhanit/management-system/internal/metrics"
	profileUseCase "github.com/buiducnhanit/management-system/internal/profile/usecase"
	refreshUseCase "github.com/buiducnhanit/management-system/internal/refreshtoken/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	mailer          mail.Mailer
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Repositories
	userRepo         identityUseCase.UserRepository
	actionTokenRepo  identityUseCase.ActionTokenRepository
	refreshTokenRepo refreshUseCase.RefreshTokenRepository
	profileRepo      profileUseCase.ProfileRepository
	outboxRepo       eventsUseCase.OutboxEventRepository

	// Services
	passwordService   identityService.PasswordService
	passwordGenerator identityService.PasswordGenerator
	secretService     authService.SecretService
	tokenCodec        authService.TokenCodec

	// Use cases and workers
	identityUseCase      identityUseCase.IdentityUseCase
	rotationEngine       refreshUseCase.RotationEngine
	cleanupUseCase       refreshUseCase.CleanupUseCase
	authUseCase          authUseCase.AuthUseCase
	profileUseCase       profileUseCase.ProfileUseCase
	outboxRelay          *eventsUseCase.OutboxRelay
	eventBus             bus.Bus
	authEventConsumer    *authUseCase.EventConsumer
	profileEventConsumer *profileUseCase.EventConsumer

	// Servers
	authHTTPServer    *http.Server
	profileHTTPServer *http.Server
	metricsServer     *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                       sync.Mutex
	loggerInit               sync.Once
	dbInit                   sync.Once
	txManagerInit            sync.Once
	mailerInit               sync.Once
	metricsProviderInit      sync.Once
	businessMetricsInit      sync.Once
	userRepoInit             sync.Once
	actionTokenRepoInit      sync.Once
	refreshTokenRepoInit     sync.Once
	profileRepoInit          sync.Once
	outboxRepoInit           sync.Once
	passwordServiceInit      sync.Once
	passwordGeneratorInit    sync.Once
	secretServiceInit        sync.Once
	tokenCodecInit           sync.Once
	identityUseCaseInit      sync.Once
	rotationEngineInit       sync.Once
	cleanupUseCaseInit       sync.Once
	authUseCaseInit          sync.Once
	profileUseCaseInit       sync.Once
	outboxRelayInit          sync.Once
	eventBusInit             sync.Once
	authEventConsumerInit    sync.Once
	profileEventConsumerInit sync.Once
	authServerInit           sync.Once
	profileServerInit        sync.Once
	metricsServerInit        sync.Once
	initErrors               map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// Mailer returns the transactional mailer. With no SMTP host configured it
// logs messages instead of sending them.
func (c *Container) Mailer() mail.Mailer {
	c.mailerInit.Do(func() {
		c.mailer = mail.NewMailer(c.config, c.Logger())
	})
	return c.mailer
}

// MetricsProvider returns the Prometheus-backed OpenTelemetry meter provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled it returns a no-op implementation.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// MetricsServer returns the standalone metrics HTTP server, or nil when
// metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.authHTTPServer != nil {
		if err := c.authHTTPServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("auth server shutdown: %w", err))
		}
	}

	if c.profileHTTPServer != nil {
		if err := c.profileHTTPServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("profile server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.eventBus != nil {
		if err := c.eventBus.Close(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("event bus close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initMetricsServer creates the standalone metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
