package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
)

// Sender delivers one plain-text email
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPConfig reads the SMTP settings from the environment
func NewSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     utils.GetEnvOrDefault("SMTP_HOST", ""),
		Port:     utils.GetEnvIntOrDefault("SMTP_PORT", 587),
		Username: utils.GetEnvOrDefault("SMTP_USERNAME", ""),
		Password: utils.GetEnvOrDefault("SMTP_PASSWORD", ""),
		From:     utils.GetEnvOrDefault("SMTP_FROM", ""),
	}
}

// Configured reports whether enough settings are present to send mail
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	config   SMTPConfig
	sendMail sendMailFunc
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config, sendMail: smtp.SendMail}
}

// Send implements Sender. smtp.SendMail is not context aware, so the deadline is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.sendMail(addr, auth, s.config.From, []string{to}, buildMessage(s.config.From, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", addr, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// sanitizeHeader strips line breaks so user input cannot inject headers
func sanitizeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

// LogSender writes emails to the log instead of sending them
type LogSender struct{}

// Send implements Sender
func (LogSender) Send(_ context.Context, to, subject, body string) error {
	slog.Info("Email (log sender)", "to", to, "subject", subject, "body", body)
	return nil
}
