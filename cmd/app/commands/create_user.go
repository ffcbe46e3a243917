package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	identityService "github.com/buiducnhanit/management-system/internal/identity/service"
	identityUseCase "github.com/buiducnhanit/management-system/internal/identity/usecase"
)

// createUserPasswordPolicy matches the strength rules enforced on the
// registration endpoint.
var createUserPasswordPolicy = identityService.PasswordPolicy{
	Length:       16,
	RequireUpper: true,
	RequireLower: true,
	RequireDigit: true,
}

// RunCreateUser creates a user identity from the command line. When no
// password is given a random policy-compliant one is generated and printed
// exactly once. The email confirmation token is printed so an operator can
// hand it to the user out of band.
func RunCreateUser(
	ctx context.Context,
	identities identityUseCase.IdentityUseCase,
	passwordGenerator identityService.PasswordGenerator,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	phoneNumber string,
	password string,
	roles string,
	format string,
) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	roleList := parseRoles(roles)
	if len(roleList) == 0 {
		return fmt.Errorf("at least one role is required")
	}

	generated := false
	if password == "" {
		var err error
		password, err = passwordGenerator.Generate(createUserPasswordPolicy)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		generated = true
	}

	logger.Info("creating user",
		slog.String("email", email),
		slog.Any("roles", roleList),
	)

	user, err := identities.CreateUser(ctx, email, phoneNumber, password, roleList)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	confirmationToken, err := identities.GenerateEmailConfirmationToken(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to generate email confirmation token: %w", err)
	}

	if format == "json" {
		outputCreateUserJSON(writer, user.ID.String(), email, roleList, password, generated, confirmationToken)
	} else {
		outputCreateUserText(writer, user.ID.String(), email, roleList, password, generated, confirmationToken)
	}

	logger.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// parseRoles splits a comma-separated role list, dropping empty entries.
func parseRoles(roles string) []string {
	var out []string
	for _, role := range strings.Split(roles, ",") {
		role = strings.TrimSpace(role)
		if role != "" {
			out = append(out, role)
		}
	}
	return out
}

// outputCreateUserText outputs the result in human-readable text format.
func outputCreateUserText(
	writer io.Writer,
	id, email string,
	roles []string,
	password string,
	generated bool,
	confirmationToken string,
) {
	fmt.Fprintf(writer, "User created successfully\n")
	fmt.Fprintf(writer, "ID:    %s\n", id)
	fmt.Fprintf(writer, "Email: %s\n", email)
	fmt.Fprintf(writer, "Roles: %s\n", strings.Join(roles, ", "))
	if generated {
		fmt.Fprintf(writer, "Generated password (shown only once): %s\n", password)
	}
	fmt.Fprintf(writer, "Email confirmation token (shown only once): %s\n", confirmationToken)
}

// outputCreateUserJSON outputs the result in JSON format for machine consumption.
func outputCreateUserJSON(
	writer io.Writer,
	id, email string,
	roles []string,
	password string,
	generated bool,
	confirmationToken string,
) {
	result := map[string]interface{}{
		"id":                 id,
		"email":              email,
		"roles":              roles,
		"confirmation_token": confirmationToken,
	}
	if generated {
		result["generated_password"] = password
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(writer, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(writer, string(jsonBytes))
}
