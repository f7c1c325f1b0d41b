package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const msgResetRequested = "If the email exists, a password reset link has been sent."

type resetRequestReq struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// RequestPasswordReset answers the same way whether or not the email
// belongs to an account.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Passwords.RequestReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgResetRequested})
}

func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Passwords.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Password has been reset successfully. You can now login with your new password.",
	})
}
