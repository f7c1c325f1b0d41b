package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/service"
)

// UserHandler serves user profile lookups and soft delete.
type UserHandler struct {
	Users *service.UserService
	Log   *zap.Logger
}

func NewUserHandler(users *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{Users: users, Log: log}
}

// List handles GET /v1/users?skip=&limit=&include_deleted=
func (h *UserHandler) List(c echo.Context) error {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return badRequest(c, "skip must be an integer")
	}
	limit, ok := queryInt(c, "limit", service.DefaultUserLimit)
	if !ok {
		return badRequest(c, "limit must be an integer")
	}
	incl, ok := queryBool(c, "include_deleted")
	if !ok {
		return badRequest(c, "include_deleted must be a boolean")
	}
	res, err := h.Users.List(c.Request().Context(), skip, limit, incl)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) GetByEmail(c echo.Context) error {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		return badRequest(c, "email is required")
	}
	u, err := h.Users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	u, err := h.Users.SoftDelete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully", "user": u})
}

func (h *UserHandler) Restore(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	u, err := h.Users.Restore(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}
