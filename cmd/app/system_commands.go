package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/buiducnhanit/management-system/cmd/app/commands"
	"github.com/buiducnhanit/management-system/internal/app"
	"github.com/buiducnhanit/management-system/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "auth-server",
			Usage: "Start the authentication HTTP server with its background workers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunAuthServer(ctx, version)
			},
		},
		{
			Name:  "profile-server",
			Usage: "Start the profile HTTP server with its event consumer",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunProfileServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
	}
}
