// Package service implements the authentication, password, user,
// organization and team use cases on top of the repository stores.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a user-facing failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
)

// Error is a failure the caller is allowed to see. Any other error a
// service returns is internal and must not be shown to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// KindOf returns the Kind of err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// Common user-facing messages.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgInvalidCaptcha     = "Invalid captcha"
	MsgInvalidResetToken  = "Invalid or expired reset token"
	MsgAlreadyMapped      = "Team is already mapped to an organization"
	MsgEmailExists        = "User with this email already exists"
)
