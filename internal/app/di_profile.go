package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/buiducnhanit/management-system/internal/http"
	"github.com/buiducnhanit/management-system/internal/metrics"
	profileHTTP "github.com/buiducnhanit/management-system/internal/profile/http"
	profileRepository "github.com/buiducnhanit/management-system/internal/profile/repository"
	profileUseCase "github.com/buiducnhanit/management-system/internal/profile/usecase"
)

// ProfileRepository returns the profile repository based on the database driver.
func (c *Container) ProfileRepository() (profileUseCase.ProfileRepository, error) {
	var err error
	c.profileRepoInit.Do(func() {
		c.profileRepo, err = c.initProfileRepository()
		if err != nil {
			c.initErrors["profileRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["profileRepo"]; exists {
		return nil, storedErr
	}
	return c.profileRepo, nil
}

// ProfileUseCase returns the profile use case.
func (c *Container) ProfileUseCase() (profileUseCase.ProfileUseCase, error) {
	var err error
	c.profileUseCaseInit.Do(func() {
		c.profileUseCase, err = c.initProfileUseCase()
		if err != nil {
			c.initErrors["profileUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["profileUseCase"]; exists {
		return nil, storedErr
	}
	return c.profileUseCase, nil
}

// ProfileEventConsumer returns the profile-side event consumer.
func (c *Container) ProfileEventConsumer() (*profileUseCase.EventConsumer, error) {
	var err error
	c.profileEventConsumerInit.Do(func() {
		c.profileEventConsumer, err = c.initProfileEventConsumer()
		if err != nil {
			c.initErrors["profileEventConsumer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["profileEventConsumer"]; exists {
		return nil, storedErr
	}
	return c.profileEventConsumer, nil
}

// ProfileHTTPServer returns the profile service HTTP server.
func (c *Container) ProfileHTTPServer() (*http.Server, error) {
	var err error
	c.profileServerInit.Do(func() {
		c.profileHTTPServer, err = c.initProfileHTTPServer()
		if err != nil {
			c.initErrors["profileHTTPServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["profileHTTPServer"]; exists {
		return nil, storedErr
	}
	return c.profileHTTPServer, nil
}

// initProfileRepository creates the profile repository based on the database driver.
func (c *Container) initProfileRepository() (profileUseCase.ProfileRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for profile repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return profileRepository.NewMySQLProfileRepository(db), nil
	case "postgres":
		return profileRepository.NewPostgreSQLProfileRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initProfileUseCase creates the profile use case with all its dependencies.
func (c *Container) initProfileUseCase() (profileUseCase.ProfileUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for profile use case: %w", err)
	}

	profileRepo, err := c.ProfileRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile repository for profile use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for profile use case: %w", err)
	}

	return profileUseCase.NewProfileUseCase(txManager, profileRepo, outboxRepo, c.Logger()), nil
}

// initProfileEventConsumer creates the profile-side event consumer.
func (c *Container) initProfileEventConsumer() (*profileUseCase.EventConsumer, error) {
	eventBus, err := c.EventBus()
	if err != nil {
		return nil, fmt.Errorf("failed to get event bus for profile event consumer: %w", err)
	}

	profiles, err := c.ProfileUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile use case for profile event consumer: %w", err)
	}

	return profileUseCase.NewEventConsumer(eventBus, profiles, c.Logger()), nil
}

// initProfileHTTPServer creates the profile HTTP server with all routes wired.
func (c *Container) initProfileHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for profile http server: %w", err)
	}

	profiles, err := c.ProfileUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile use case for profile http server: %w", err)
	}

	handler := profileHTTP.NewProfileHandler(profiles, logger)

	var extraMiddleware []gin.HandlerFunc
	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for profile http server: %w", err)
		}
		extraMiddleware = append(extraMiddleware,
			metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace))
	}

	register := func(router *gin.Engine) {
		// Access-token validation happens at the API gateway; the profile
		// service only receives authenticated, gateway-forwarded traffic.
		profilesGroup := router.Group("/v1/profiles")
		profilesGroup.GET("/:id", handler.GetHandler)
		profilesGroup.PUT("/:id", handler.UpdateHandler)
		profilesGroup.DELETE("/:id", handler.DeleteHandler)
	}

	server := http.NewServer(
		db,
		http.Options{
			Host:            c.config.ServerHost,
			Port:            c.config.ProfileServerPort,
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
