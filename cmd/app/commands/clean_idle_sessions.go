package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	refreshUseCase "github.com/buiducnhanit/management-system/internal/refreshtoken/usecase"
)

// RunCleanIdleSessions revokes refresh tokens whose last use is older than the
// configured idle timeout. Supports dry-run mode to preview the revocation
// count and both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanIdleSessions(
	ctx context.Context,
	cleanupUseCase refreshUseCase.CleanupUseCase,
	logger *slog.Logger,
	writer io.Writer,
	idleTimeout time.Duration,
	dryRun bool,
	format string,
) error {
	logger.Info("cleaning idle sessions",
		slog.Duration("idle_timeout", idleTimeout),
		slog.Bool("dry_run", dryRun),
	)

	count, err := cleanupUseCase.Sweep(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean idle sessions: %w", err)
	}

	if format == "json" {
		outputCleanIdleSessionsJSON(writer, count, idleTimeout, dryRun)
	} else {
		outputCleanIdleSessionsText(writer, count, idleTimeout, dryRun)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}

// outputCleanIdleSessionsText outputs the result in human-readable text format.
func outputCleanIdleSessionsText(writer io.Writer, count int64, idleTimeout time.Duration, dryRun bool) {
	if dryRun {
		fmt.Fprintf(writer, "Dry-run mode: Would revoke %d session(s) idle longer than %s\n", count, idleTimeout)
	} else {
		fmt.Fprintf(writer, "Successfully revoked %d session(s) idle longer than %s\n", count, idleTimeout)
	}
}

// outputCleanIdleSessionsJSON outputs the result in JSON format for machine consumption.
func outputCleanIdleSessionsJSON(writer io.Writer, count int64, idleTimeout time.Duration, dryRun bool) {
	result := map[string]interface{}{
		"count":        count,
		"idle_timeout": idleTimeout.String(),
		"dry_run":      dryRun,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(writer, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(writer, string(jsonBytes))
}
