package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

// Message is an outbound HTML e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	addr   string
	auth   smtp.Auth
	sender string
	send   sendFunc
	logger *zap.Logger
}

// NewSMTPMailer constructs a mailer from config.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	sender := cfg.Sender
	if sender == "" {
		sender = "no-reply@localhost"
	}
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:   auth,
		sender: sender,
		send:   smtp.SendMail,
		logger: logger,
	}
}

// Send delivers msg. The context only gates the start of delivery; net/smtp
// has no cancellation hook.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}
	body := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.sender, msg.To, msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			msg.HTML,
	)
	if err := m.send(m.addr, m.auth, m.sender, []string{msg.To}, body); err != nil {
		m.logger.Warn("smtp send failed", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}
	m.logger.Info("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// OTPMessage renders the verification code e-mail.
func OTPMessage(to, code string, ttlMinutes int) Message {
	return Message{
		To:      to,
		Subject: "Your verification code",
		HTML: fmt.Sprintf(`<p>Your verification code is <strong>%s</strong>.</p>
<p>It expires in %d minutes. If you did not request it, ignore this e-mail.</p>`, code, ttlMinutes),
	}
}
