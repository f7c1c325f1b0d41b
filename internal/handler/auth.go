package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/middleware"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

// AuthHandler serves captcha, signin, signup and the password endpoints.
type AuthHandler struct {
	Captchas  *service.CaptchaService
	Auth      *service.AuthService
	Passwords *service.PasswordService
	Log       *zap.Logger
}

func NewAuthHandler(captchas *service.CaptchaService, auth *service.AuthService, passwords *service.PasswordService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Captchas: captchas, Auth: auth, Passwords: passwords, Log: log}
}

// ----- DTOs -----

type signinReq struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	CaptchaText string `json:"captcha_text" validate:"required"`
	CaptchaID   string `json:"captcha_id" validate:"required"`
}

type orgDetailsReq struct {
	IndustryType                 string `json:"industry_type" validate:"required"`
	IsStartup                    bool   `json:"is_startup"`
	IsDPIITCertified             bool   `json:"is_dpiit_certified"`
	IsInterestedInAPIIntegration bool   `json:"is_interested_in_api_integration"`
}

type signupOrgReq struct {
	OrgType    string        `json:"org_type" validate:"required,max=100"`
	OrgName    string        `json:"org_name" validate:"required,max=255"`
	OrgDetails orgDetailsReq `json:"org_details"`
}

type signupReq struct {
	FirstName string       `json:"first_name" validate:"required,max=100"`
	LastName  string       `json:"last_name" validate:"required,max=100"`
	EmailID   string       `json:"email_id" validate:"required,email"`
	Role      string       `json:"role" validate:"omitempty,max=32"`
	Org       signupOrgReq `json:"org"`
	TncURL    string       `json:"tnc_url" validate:"required"`
	Password  string       `json:"password" validate:"omitempty,min=8,max=128"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Captcha issues a new captcha challenge.
func (h *AuthHandler) Captcha(c echo.Context) error {
	ch, err := h.Captchas.Issue(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"captcha": ch})
}

// Signin checks the captcha and credentials and returns a session token.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Auth.Signin(c.Request().Context(), service.SigninInput{
		Email:       req.Email,
		Password:    req.Password,
		CaptchaID:   req.CaptchaID,
		CaptchaText: req.CaptchaText,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Signup registers a customer. The body is either JSON or a form whose
// request_data field holds the same JSON document.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if isForm(c) {
		raw := c.FormValue("request_data")
		if strings.TrimSpace(raw) == "" {
			return badRequest(c, "request_data is required")
		}
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return badRequest(c, "Invalid JSON in request_data")
		}
	} else if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Auth.Signup(c.Request().Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		EmailID:   req.EmailID,
		Role:      req.Role,
		Org: service.SignupOrg{
			OrgType: req.Org.OrgType,
			OrgName: req.Org.OrgName,
			OrgDetails: service.OrgDetails{
				IndustryType:                 req.Org.OrgDetails.IndustryType,
				IsStartup:                    req.Org.OrgDetails.IsStartup,
				IsDPIITCertified:             req.Org.OrgDetails.IsDPIITCertified,
				IsInterestedInAPIIntegration: req.Org.OrgDetails.IsInterestedInAPIIntegration,
			},
		},
		TncURL:   req.TncURL,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func isForm(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEMultipartForm) || strings.HasPrefix(ct, echo.MIMEApplicationForm)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Auth.Me(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword replaces the caller's password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Passwords.ChangePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully."})
}
