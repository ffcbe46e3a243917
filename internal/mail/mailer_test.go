package mail

import (
	"context"
	"io"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buiducnhanit/management-system/internal/config"
)

func TestNewMailer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("NoHostSelectsLogMailer", func(t *testing.T) {
		mailer := NewMailer(&config.Config{}, logger)
		assert.IsType(t, &LogMailer{}, mailer)
	})

	t.Run("HostSelectsSMTPMailer", func(t *testing.T) {
		cfg := &config.Config{
			SMTPHost: "smtp.example.com",
			SMTPPort: 587,
			SMTPFrom: "no-reply@example.com",
		}
		mailer := NewMailer(cfg, logger)
		assert.IsType(t, &SMTPMailer{}, mailer)
		assert.Equal(t, "smtp.example.com:587", mailer.(*SMTPMailer).addr)
	})
}

func TestSMTPMailer_Send(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotAddr, gotFrom string
		var gotTo []string
		var gotMsg []byte

		mailer := &SMTPMailer{
			addr: "smtp.example.com:587",
			host: "smtp.example.com",
			from: "no-reply@example.com",
			send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
				gotAddr = addr
				gotFrom = from
				gotTo = to
				gotMsg = msg
				return nil
			},
		}

		err := mailer.Send(context.Background(), "user@example.com", "Confirm your email", "Hello")

		assert.NoError(t, err)
		assert.Equal(t, "smtp.example.com:587", gotAddr)
		assert.Equal(t, "no-reply@example.com", gotFrom)
		assert.Equal(t, []string{"user@example.com"}, gotTo)
		assert.Contains(t, string(gotMsg), "Subject: Confirm your email")
		assert.Contains(t, string(gotMsg), "Hello")
	})

	t.Run("Error_RelayFailure", func(t *testing.T) {
		mailer := &SMTPMailer{
			addr: "smtp.example.com:587",
			host: "smtp.example.com",
			from: "no-reply@example.com",
			send: func(string, smtp.Auth, string, []string, []byte) error {
				return assert.AnError
			},
		}

		err := mailer.Send(context.Background(), "user@example.com", "subject", "body")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send email")
	})
}

func TestLogMailer_Send(t *testing.T) {
	mailer := &LogMailer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := mailer.Send(context.Background(), "user@example.com", "subject", "body")

	assert.NoError(t, err)
}
