package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/buiducnhanit/management-system/internal/app"
	"github.com/buiducnhanit/management-system/internal/config"
	internalHTTP "github.com/buiducnhanit/management-system/internal/http"
)

// worker is a long-running component that blocks until its context is cancelled.
type worker func(ctx context.Context) error

// RunAuthServer starts the authentication HTTP server together with its
// background workers: the outbox relay, the event consumer, and the
// idle-session cleanup scheduler. Blocks until receiving SIGINT/SIGTERM or
// encountering a fatal error.
func RunAuthServer(ctx context.Context, version string) error {
	cfg := config.Load()
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting auth server", slog.String("version", version))

	defer closeContainer(container, logger)

	server, err := container.AuthHTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize auth HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	relay, err := container.OutboxRelay()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox relay: %w", err)
	}

	consumer, err := container.AuthEventConsumer()
	if err != nil {
		return fmt.Errorf("failed to initialize event consumer: %w", err)
	}

	cleanup, err := container.CleanupUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize cleanup scheduler: %w", err)
	}

	return runService(ctx, cfg, logger, server, metricsServer,
		relay.Start, consumer.Start, cleanup.Start)
}

// RunProfileServer starts the profile HTTP server together with the outbox
// relay and the profile event consumer. Blocks until receiving SIGINT/SIGTERM
// or encountering a fatal error.
func RunProfileServer(ctx context.Context, version string) error {
	cfg := config.Load()
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting profile server", slog.String("version", version))

	defer closeContainer(container, logger)

	server, err := container.ProfileHTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize profile HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	relay, err := container.OutboxRelay()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox relay: %w", err)
	}

	consumer, err := container.ProfileEventConsumer()
	if err != nil {
		return fmt.Errorf("failed to initialize event consumer: %w", err)
	}

	return runService(ctx, cfg, logger, server, metricsServer,
		relay.Start, consumer.Start)
}

// runService runs the HTTP servers and workers under a single errgroup with
// graceful shutdown on SIGINT/SIGTERM. Workers stop through context
// cancellation; the HTTP servers need an explicit Shutdown call, issued by a
// watcher goroutine once the group context is cancelled.
func runService(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	server *internalHTTP.Server,
	metricsServer *internalHTTP.MetricsServer,
	workers ...worker,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Start(groupCtx)
	})

	if metricsServer != nil {
		group.Go(func() error {
			return metricsServer.Start(groupCtx)
		})
	}

	for _, w := range workers {
		group.Go(func() error {
			return w(groupCtx)
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer cancel()

		var shutdownErrors []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("server stopped")
	return nil
}
