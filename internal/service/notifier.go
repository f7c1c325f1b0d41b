package service

import "context"

// PasswordResetEmail asks the recipient to pick a new password.
type PasswordResetEmail struct {
	To         string `json:"to"`
	FirstName  string `json:"first_name"`
	ResetToken string `json:"reset_token"`
}

// WelcomeEmail greets a new user and carries the generated initial
// password plus a reset token to replace it.
type WelcomeEmail struct {
	To           string `json:"to"`
	FirstName    string `json:"first_name"`
	TempPassword string `json:"temp_password"`
	ResetToken   string `json:"reset_token"`
}

// Notifier delivers account emails. Implementations may queue or send
// inline; services log a returned error and carry on.
type Notifier interface {
	PasswordReset(ctx context.Context, m PasswordResetEmail) error
	Welcome(ctx context.Context, m WelcomeEmail) error
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) PasswordReset(context.Context, PasswordResetEmail) error { return nil }
func (NopNotifier) Welcome(context.Context, WelcomeEmail) error             { return nil }
