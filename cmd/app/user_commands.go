package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/buiducnhanit/management-system/cmd/app/commands"
	"github.com/buiducnhanit/management-system/internal/app"
	"github.com/buiducnhanit/management-system/internal/config"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Create a new user identity",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address for the new user",
				},
				&cli.StringFlag{
					Name:    "phone",
					Aliases: []string{"p"},
					Usage:   "Phone number for the new user",
				},
				&cli.StringFlag{
					Name:    "password",
					Usage:   "Initial password (omit to generate a random one)",
				},
				&cli.StringFlag{
					Name:    "roles",
					Aliases: []string{"r"},
					Value:   "user",
					Usage:   "Comma-separated list of initial roles",
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

				identities, err := container.IdentityUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateUser(
					ctx,
					identities,
					container.PasswordGenerator(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("phone"),
					cmd.String("password"),
					cmd.String("roles"),
					cmd.String("format"),
				)
			},
		},
	}
}
