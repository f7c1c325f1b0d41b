package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id, or false on public routes.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Actor names the caller for audit columns: the token email, else "system".
func Actor(c echo.Context) string {
	if e, ok := c.Get(CtxEmail).(string); ok && e != "" {
		return e
	}
	return "system"
}

// subject is the rate limit identity of the caller: the user id when
// authenticated, "anon" otherwise.
func subject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
