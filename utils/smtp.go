package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"qr-booking-backend/config"
	"qr-booking-backend/logger"
)

type EmailSender interface {
	Send(ctx context.Context, e Email) error
}

// NewEmailSender returns an SMTP sender, or a logging mock when SMTP is not
// configured.
func NewEmailSender(cfg config.MailConfig, log *logger.Logger) EmailSender {
	if !cfg.SMTPConfigured() {
		log.Warn("MAIL", "SMTP not configured; emails will be logged only")
		return &MockSender{Log: log}
	}
	return &SMTPSender{Config: cfg, Log: log}
}

type MockSender struct {
	Log  *logger.Logger
	Sent []Email
}

func (m *MockSender) Send(_ context.Context, e Email) error {
	m.Sent = append(m.Sent, e)
	m.Log.Info("MAIL", fmt.Sprintf("[MOCK EMAIL] to:%s subject:%s", MaskEmail(e.To), e.Subject))
	return nil
}

type SMTPSender struct {
	Config config.MailConfig
	Log    *logger.Logger
}

func (s *SMTPSender) from() (display, envelope string) {
	envelope = s.Config.FromAddress
	if envelope == "" {
		envelope = s.Config.SMTPUsername
	}
	safeName := strings.ReplaceAll(strings.TrimSpace(s.Config.FromName), "\r\n", " ")
	if safeName == "" {
		return envelope, envelope
	}
	return fmt.Sprintf("%s <%s>", safeName, envelope), envelope
}

// Send delivers e over SMTP with STARTTLS when offered. The whole exchange
// is bounded by ctx and the configured mail timeout.
func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	timeout := s.Config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(s.Config.SMTPHost, s.Config.SMTPPort)
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.Config.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.Config.SMTPHost}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	auth := smtp.PlainAuth("", s.Config.SMTPUsername, s.Config.SMTPPassword, s.Config.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	display, envelope := s.from()
	if err := client.Mail(envelope); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(e.To); err != nil {
		return fmt.Errorf("smtp rcpt %s: %w", e.To, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(BuildMessage(display, e)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	if err := client.Quit(); err != nil {
		s.Log.Debug("MAIL", fmt.Sprintf("smtp quit: %v", err))
	}

	s.Log.Info("MAIL", fmt.Sprintf("Email sent to %s", MaskEmail(e.To)))
	return nil
}
