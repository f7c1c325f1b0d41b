package mailer

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers messages with PLAIN auth. Without credentials it
// logs and drops every message.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	send     SendFunc
	log      *zap.Logger
}

func NewSMTPSender(cfg config.Config, log *zap.Logger) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
		send:     smtp.SendMail,
		log:      log,
	}
}

// Configured reports whether credentials are present.
func (s *SMTPSender) Configured() bool {
	return s.username != "" && s.password != ""
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if !s.Configured() {
		s.log.Warn("smtp credentials not configured, email dropped", zap.String("subject", m.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := s.send(addr, auth, s.from, []string{m.To}, s.compose(m)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Info("email sent", zap.String("subject", m.Subject))
	return nil
}

func (s *SMTPSender) compose(m Message) []byte {
	var b strings.Builder
	from := s.from
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.fromName), s.from)
	}
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", m.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(m.HTML)
	return []byte(b.String())
}
