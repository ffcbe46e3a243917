package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/buiducnhanit/management-system/cmd/app/commands"
	"github.com/buiducnhanit/management-system/internal/app"
	"github.com/buiducnhanit/management-system/internal/config"
)

func getSessionCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "clean-idle-sessions",
			Usage: "Revoke refresh tokens idle longer than the configured timeout",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many sessions would be revoked without revoking",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				cleanupUseCase, err := container.CleanupUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanIdleSessions(
					ctx,
					cleanupUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cfg.IdleSessionTimeout,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
