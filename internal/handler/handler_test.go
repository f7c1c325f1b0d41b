package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/adopter-login-api/internal/service"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestParamID(t *testing.T) {
	c, _ := newContext("/")
	c.SetParamNames("id")
	for raw, want := range map[string]bool{"12": true, "0": false, "-1": false, "abc": false, "": false} {
		c.SetParamValues(raw)
		_, ok := paramID(c, "id")
		require.Equal(t, want, ok, raw)
	}
	c.SetParamValues("42")
	id, _ := paramID(c, "id")
	require.EqualValues(t, 42, id)
}

func TestQueryHelpers(t *testing.T) {
	c, _ := newContext("/?limit=5&bad=x&flag=true&d=2025-02-03&ts=2025-02-03T04:05:06Z")

	n, ok := queryInt(c, "limit", 100)
	require.True(t, ok)
	require.Equal(t, 5, n)
	n, ok = queryInt(c, "missing", 100)
	require.True(t, ok)
	require.Equal(t, 100, n)
	_, ok = queryInt(c, "bad", 100)
	require.False(t, ok)

	b, ok := queryBool(c, "flag")
	require.True(t, ok)
	require.True(t, b)
	_, ok = queryBool(c, "bad")
	require.False(t, ok)

	d, ok := queryTime(c, "d")
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), *d)
	ts, ok := queryTime(c, "ts")
	require.True(t, ok)
	require.Equal(t, 4, ts.Hour())
	none, ok := queryTime(c, "missing")
	require.True(t, ok)
	require.Nil(t, none)
	_, ok = queryTime(c, "bad")
	require.False(t, ok)
}

func TestActorOr(t *testing.T) {
	c, _ := newContext("/")
	require.Equal(t, "system", actorOr(c, "  "))
	require.Equal(t, "importer", actorOr(c, " importer "))
	c.Set("email", "ops@example.org")
	require.Equal(t, "ops@example.org", actorOr(c, ""))
}

func TestRespondErrorMapsKinds(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	log := zap.New(core)

	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{&service.Error{Kind: service.KindValidation, Message: "bad"}, http.StatusBadRequest, "bad"},
		{&service.Error{Kind: service.KindConflict, Message: "dup"}, http.StatusBadRequest, "dup"},
		{&service.Error{Kind: service.KindNotFound, Message: "Team not found"}, http.StatusNotFound, "Team not found"},
		{&service.Error{Kind: service.KindUnauthorized, Message: "no"}, http.StatusUnauthorized, "no"},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError, msgInternal},
	}
	for _, tc := range cases {
		c, rec := newContext("/")
		require.NoError(t, respondError(c, log, tc.err))
		require.Equal(t, tc.code, rec.Code)
		require.JSONEq(t, `{"error":"`+tc.msg+`"}`, rec.Body.String())
	}
	require.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

type nested struct {
	Inner struct {
		Name string `json:"name" validate:"required"`
	} `json:"inner"`
	Email string `json:"email" validate:"omitempty,email"`
	Code  string `json:"code" validate:"max=3"`
}

func TestValidationResponse(t *testing.T) {
	c, rec := newContext("/")
	err := c.Validate(&nested{Email: "x", Code: "toolong"})
	require.Error(t, err)
	require.NoError(t, respondError(c, zap.NewNop(), err))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"validation failed","fields":[
		{"field":"inner.name","code":"required","message":"is required"},
		{"field":"email","code":"email","message":"must be a valid email address"},
		{"field":"code","code":"max","message":"must be at most 3 characters long"}]}`, rec.Body.String())
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zap.NewNop())
	e.GET("/teapot", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })
	e.GET("/upstream", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream secret") })
	e.GET("/plain", func(c echo.Context) error { return errors.New("boom") })

	for path, want := range map[string]string{
		"/teapot":  `{"error":"short and stout"}`,
		"/upstream":   `{"error":"Bad Gateway"}`,
		"/plain":   `{"error":"internal server error"}`,
		"/missing": `{"error":"Not Found"}`,
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.JSONEq(t, want, rec.Body.String(), path)
	}
}

func TestHealthHandlers(t *testing.T) {
	c, rec := newContext("/healthz")
	require.NoError(t, Health(c))
	require.Equal(t, "ok", rec.Body.String())

	c, rec = newContext("/v1/health")
	require.NoError(t, APIHealth(c))
	require.JSONEq(t, `{"status":"healthy","message":"Adopter Login API is running"}`, rec.Body.String())
}
