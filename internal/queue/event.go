// Package queue carries account emails over RabbitMQ: the API publishes
// EmailEvents and the mailer worker consumes them.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/adopter-login-api/internal/service"
)

// Event types.
const (
	TypePasswordReset = "password_reset"
	TypeWelcome       = "welcome"
)

// EmailEvent is the JSON body of a queued email. Exactly one payload is
// set, matching Type.
type EmailEvent struct {
	Type          string                      `json:"type"`
	PasswordReset *service.PasswordResetEmail `json:"password_reset,omitempty"`
	Welcome       *service.WelcomeEmail       `json:"welcome,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// DecodeEvent parses and checks a message body.
func DecodeEvent(body []byte) (EmailEvent, error) {
	var ev EmailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	switch {
	case ev.Type == TypePasswordReset && ev.PasswordReset != nil && ev.PasswordReset.To != "":
	case ev.Type == TypeWelcome && ev.Welcome != nil && ev.Welcome.To != "":
	default:
		return ev, fmt.Errorf("malformed %q event", ev.Type)
	}
	return ev, nil
}
