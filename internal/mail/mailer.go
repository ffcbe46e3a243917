// Package mail sends transactional email over SMTP. When no SMTP host is
// configured the mailer degrades to logging the message, which keeps local
// development and tests free of a mail relay.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"

	"github.com/buiducnhanit/management-system/internal/config"
	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

// Mailer sends a single transactional message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer selects the SMTP mailer when a host is configured, otherwise the
// logging mailer.
func NewMailer(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host:     cfg.SMTPHost,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		send:     smtp.SendMail,
	}
}

// SMTPMailer delivers mail through a relay using net/smtp.
type SMTPMailer struct {
	addr     string
	host     string
	from     string
	username string
	password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body,
	)

	if err := m.send(m.addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return apperrors.Wrap(err, "failed to send email")
	}

	return nil
}

// LogMailer records outbound mail instead of delivering it.
type LogMailer struct {
	logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("mail delivery disabled, logging message",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body))
	return nil
}
