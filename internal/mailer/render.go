// Package mailer renders account emails and delivers them over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const product = "Adopter Platform"

// Message is a rendered email ready to send.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Renderer turns notifier payloads into messages. Links point at the
// frontend's reset page.
type Renderer struct {
	frontendURL string
	resetTTL    time.Duration
	tempTTL     time.Duration
}

func NewRenderer(cfg config.Config) *Renderer {
	return &Renderer{frontendURL: cfg.FrontendURL, resetTTL: cfg.ResetTokenTTL, tempTTL: cfg.TempPasswordTTL}
}

func (r *Renderer) resetURL(token string) string {
	return r.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (r *Renderer) Welcome(m service.WelcomeEmail) (Message, error) {
	body, err := execute("welcome.html", map[string]any{
		"Product":           product,
		"FirstName":         m.FirstName,
		"To":                m.To,
		"TempPassword":      m.TempPassword,
		"TempPasswordHours": int(r.tempTTL.Hours()),
		"ResetURL":          template.URL(r.resetURL(m.ResetToken)),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: m.To, Subject: "Welcome to " + product + " - Your Account Credentials", HTML: body}, nil
}

func (r *Renderer) PasswordReset(m service.PasswordResetEmail) (Message, error) {
	body, err := execute("password_reset.html", map[string]any{
		"Product":      product,
		"FirstName":    m.FirstName,
		"ResetMinutes": int(r.resetTTL.Minutes()),
		"ResetURL":     template.URL(r.resetURL(m.ResetToken)),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: m.To, Subject: "Password Reset Request - " + product, HTML: body}, nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
