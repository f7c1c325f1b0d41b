package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/service"
)

const msgInternal = "internal server error"

// statusOf maps a service error kind to its HTTP status. Conflicts are
// reported as 400 like other client mistakes.
func statusOf(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": message}. Internal errors are
// logged and hidden behind a generic message.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		return c.JSON(statusOf(se.Kind), echo.Map{"error": se.Message})
	}
	if ok, rerr := validationResponse(c, err); ok {
		return rerr
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgInternal})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// HTTPErrorHandler is the echo error handler: echo.HTTPError keeps its
// status and message, anything else becomes a logged 500.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, ok := he.Message.(string)
			if !ok || he.Code >= 500 {
				msg = http.StatusText(he.Code)
			}
			if he.Code >= 500 {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			if c.Request().Method == http.MethodHead {
				_ = c.NoContent(he.Code)
				return
			}
			_ = c.JSON(he.Code, echo.Map{"error": msg})
			return
		}
		_ = respondError(c, log, err)
	}
}
