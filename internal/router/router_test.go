package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/handler"
	"github.com/iliyamo/adopter-login-api/internal/repository/memory"
	"github.com/iliyamo/adopter-login-api/internal/service"
	"github.com/iliyamo/adopter-login-api/internal/utils"
)

const secret = "router-test-secret"

type outbox struct {
	mu       sync.Mutex
	resets   []service.PasswordResetEmail
	welcomes []service.WelcomeEmail
}

func (o *outbox) PasswordReset(_ context.Context, m service.PasswordResetEmail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resets = append(o.resets, m)
	return nil
}

func (o *outbox) Welcome(_ context.Context, m service.WelcomeEmail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.welcomes = append(o.welcomes, m)
	return nil
}

type api struct {
	e     *echo.Echo
	store *memory.Store
	mail  *outbox
}

func newAPI(t *testing.T) *api {
	t.Helper()
	cfg := config.Config{
		JWTSecret:        secret,
		AccessTTLMin:     30,
		BcryptCost:       bcrypt.MinCost,
		CaptchaTTL:       5 * time.Minute,
		CaptchaLength:    6,
		ResetTokenTTL:    time.Hour,
		TempPasswordTTL:  24 * time.Hour,
		SignupEchoPasswd: true,
	}
	log := zap.NewNop()
	store := memory.New()
	mail := &outbox{}

	captchas := service.NewCaptchaService(store.Captchas(), cfg, log)
	passwords := service.NewPasswordService(store.Users(), mail, cfg, log)
	auth := service.NewAuthService(store.Users(), captchas, passwords, mail, cfg, log)

	e := New(log)
	d := Deps{JWTSecret: secret, Log: log}
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(captchas, auth, passwords, log), d)
	RegisterUsers(e, handler.NewUserHandler(service.NewUserService(store.Users(), log), log), d)
	RegisterOrganizations(e, handler.NewOrganizationHandler(service.NewOrganizationService(store.Organizations(), store.Teams(), log), log), d)
	RegisterTeams(e, handler.NewTeamHandler(service.NewTeamService(store.Teams(), store.Organizations(), log), log), d)
	return &api{e: e, store: store, mail: mail}
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(bs)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

func token(t *testing.T, id uint64, email, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, email, role, time.Hour, time.Now())
	require.NoError(t, err)
	return tok.Token
}

func signupBody(email string) map[string]any {
	return map[string]any{
		"first_name": "Asha",
		"last_name":  "Rao",
		"email_id":   email,
		"org": map[string]any{
			"org_type":    "Startup",
			"org_name":    "Acme Labs",
			"org_details": map[string]any{"industry_type": "Agritech", "is_startup": true},
		},
		"tnc_url": "https://example.org/tnc",
	}
}

// captcha issues a captcha over HTTP and reads its answer from the store.
func (a *api) captcha(t *testing.T) (string, string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/captcha", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]service.CaptchaChallenge](t, rec)
	ch := res["captcha"]
	require.NotEmpty(t, ch.CaptchaID)
	require.NotEmpty(t, ch.Image)
	c, err := a.store.Captchas().Get(context.Background(), ch.CaptchaID)
	require.NoError(t, err)
	return ch.CaptchaID, c.Text
}

func (a *api) signin(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	id, text := a.captcha(t)
	return a.do(t, http.MethodPost, "/v1/signin", "", map[string]string{
		"email": email, "password": password, "captcha_id": id, "captcha_text": text,
	})
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/v1/health", "", nil)
	require.JSONEq(t, `{"status":"healthy","message":"Adopter Login API is running"}`, rec.Body.String())
}

func TestUnknownRouteIsJSON(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/v1/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found", errorOf(t, rec))
}

func TestSignupSigninMe(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/v1/signup", "", signupBody("Asha@Example.org"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	signup := decode[service.SignupResult](t, rec)
	require.NotEmpty(t, signup.InitialPassword)
	require.Len(t, a.mail.welcomes, 1)

	rec = a.do(t, http.MethodPost, "/v1/signup", "", signupBody("asha@example.org"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, service.MsgEmailExists, errorOf(t, rec))

	rec = a.signin(t, "asha@example.org", "wrong-password")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, service.MsgInvalidCredentials, errorOf(t, rec))

	rec = a.signin(t, "asha@example.org", signup.InitialPassword)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[service.SigninResult](t, rec)
	require.Equal(t, "asha@example.org", res.Email)
	require.Equal(t, service.RoleCustomer, res.Role)
	require.True(t, res.PasswordChangeRequired)

	rec = a.do(t, http.MethodGet, "/v1/me", res.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	require.Equal(t, "asha@example.org", me["email"])
	require.NotContains(t, me, "password_hash")

	rec = a.do(t, http.MethodPost, "/v1/password/change", res.Token, map[string]string{
		"current_password": signup.InitialPassword, "new_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, http.StatusOK, a.signin(t, "asha@example.org", "brand-new-pass").Code)
}

func TestSigninRejectsBadCaptcha(t *testing.T) {
	a := newAPI(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/v1/signup", "", signupBody("a@example.org")).Code)

	id, _ := a.captcha(t)
	rec := a.do(t, http.MethodPost, "/v1/signin", "", map[string]string{
		"email": "a@example.org", "password": "whatever1", "captcha_id": id, "captcha_text": "nope",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, service.MsgInvalidCaptcha, errorOf(t, rec))
}

func TestSignupValidation(t *testing.T) {
	a := newAPI(t)
	body := signupBody("not-an-email")
	delete(body, "first_name")
	rec := a.do(t, http.MethodPost, "/v1/signup", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var res struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "validation failed", res.Error)
	got := map[string]string{}
	for _, f := range res.Fields {
		got[f.Field] = f.Code
	}
	require.Equal(t, map[string]string{"first_name": "required", "email_id": "email"}, got)
}

func TestSignupAcceptsFormRequestData(t *testing.T) {
	a := newAPI(t)
	bs, err := json.Marshal(signupBody("form@example.org"))
	require.NoError(t, err)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/signup", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		a.e.ServeHTTP(rec, req)
		return rec
	}

	rec := post(url.Values{"request_data": {string(bs)}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = post(url.Values{"request_data": {"{not json"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid JSON in request_data", errorOf(t, rec))

	rec = post(url.Values{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	a := newAPI(t)
	body := signupBody("reset@example.org")
	body["password"] = "first-password"
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/v1/signup", "", body).Code)

	for _, email := range []string{"reset@example.org", "ghost@example.org"} {
		rec := a.do(t, http.MethodPost, "/v1/password-reset", "", map[string]string{"email": email})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "If the email exists, a password reset link has been sent.", decode[map[string]string](t, rec)["message"])
	}
	require.Len(t, a.mail.resets, 1)
	tok := a.mail.resets[0].ResetToken

	rec := a.do(t, http.MethodPost, "/v1/password-reset/confirm", "", map[string]string{"token": tok, "new_password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/password-reset/confirm", "", map[string]string{"token": tok, "new_password": "second-password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/password-reset/confirm", "", map[string]string{"token": tok, "new_password": "third-password"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, service.MsgInvalidResetToken, errorOf(t, rec))

	require.Equal(t, http.StatusUnauthorized, a.signin(t, "reset@example.org", "first-password").Code)
	require.Equal(t, http.StatusOK, a.signin(t, "reset@example.org", "second-password").Code)
}

func TestManagementRoutesRequireToken(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/v1/me", "/v1/users", "/v1/organizations", "/v1/teams"} {
		rec := a.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := a.do(t, http.MethodGet, "/v1/organizations", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid token", errorOf(t, rec))
}

func TestUsersEndpoints(t *testing.T) {
	a := newAPI(t)
	for _, email := range []string{"u1@example.org", "u2@example.org", "u3@example.org"} {
		require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/v1/signup", "", signupBody(email)).Code)
	}
	tk := token(t, 1, "u1@example.org", service.RoleCustomer)

	rec := a.do(t, http.MethodGet, "/v1/users?skip=1&limit=1", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[service.UserList](t, rec)
	require.EqualValues(t, 3, list.Total)
	require.Equal(t, 2, list.Page)
	require.Len(t, list.Users, 1)
	require.Equal(t, "u2@example.org", list.Users[0].Email)

	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/users?limit=abc", tk, nil).Code)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/users?limit=0", tk, nil).Code)

	rec = a.do(t, http.MethodGet, "/v1/users/email/u3@example.org", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	u3 := decode[map[string]any](t, rec)
	require.Equal(t, "Acme Labs", u3["org"].(map[string]any)["org_name"])

	require.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/users/99", tk, nil).Code)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/users/x", tk, nil).Code)

	admin := token(t, 9, "root@example.org", service.RoleAdmin)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/v1/users/2", admin, nil).Code)
	rec = a.do(t, http.MethodGet, "/v1/users", tk, nil)
	require.EqualValues(t, 2, decode[service.UserList](t, rec).Total)
	rec = a.do(t, http.MethodGet, "/v1/users?include_deleted=true", tk, nil)
	require.EqualValues(t, 3, decode[service.UserList](t, rec).Total)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/v1/users/2/restore", admin, nil).Code)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/v1/users/2/restore", admin, nil).Code)
}

func TestCustomerCannotDeleteOrRestoreUsers(t *testing.T) {
	a := newAPI(t)
	victim := signupBody("victim@example.org")
	victim["password"] = "victim-password"
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/v1/signup", "", victim).Code)
	self := signupBody("self@example.org")
	self["password"] = "self-password"
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/v1/signup", "", self).Code)

	rec := a.signin(t, "self@example.org", "self-password")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tk := decode[service.SigninResult](t, rec).Token

	rec = a.do(t, http.MethodDelete, "/v1/users/1", tk, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", errorOf(t, rec))
	require.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/v1/users/1/restore", tk, nil).Code)

	require.Equal(t, http.StatusOK, a.signin(t, "victim@example.org", "victim-password").Code)
}

func TestOrganizationsAndTeams(t *testing.T) {
	a := newAPI(t)
	tk := token(t, 5, "ops@example.org", service.RoleCustomer)
	admin := token(t, 6, "root@example.org", service.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/v1/organizations", tk, map[string]any{
		"name": "Green Fields", "org_type": "NGO", "city": "Pune", "org_metadata": map[string]any{"tier": 2},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	org := decode[map[string]any](t, rec)
	require.Equal(t, "ops@example.org", org["created_by"])
	require.Equal(t, "active", org["status"])
	orgID := uint64(org["id"].(float64))

	rec = a.do(t, http.MethodPost, "/v1/organizations", tk, map[string]any{"name": "green fields"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/organizations", tk, map[string]any{"name": "Blue Sky", "created_by": "importer", "email": "bad"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/organizations", tk, map[string]any{"name": "Blue Sky", "created_by": "importer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "importer", decode[map[string]any](t, rec)["created_by"])

	rec = a.do(t, http.MethodGet, "/v1/organizations?sort_by=name&sort_order=asc", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[service.OrganizationList](t, rec)
	require.EqualValues(t, 2, list.Total)
	require.Equal(t, "Blue Sky", list.Organizations[0].Name)

	rec = a.do(t, http.MethodGet, "/v1/organizations?city=pun", tk, nil)
	require.EqualValues(t, 1, decode[service.OrganizationList](t, rec).Total)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/organizations?created_after=yesterday", tk, nil).Code)

	rec = a.do(t, http.MethodGet, "/v1/organizations/search?q=green", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]map[string]any](t, rec), 1)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/organizations/search", tk, nil).Code)

	rec = a.do(t, http.MethodPut, "/v1/organizations/1", tk, map[string]any{"description": "Farming co-op", "updated_by": "editor"})
	require.Equal(t, http.StatusOK, rec.Code)
	upd := decode[map[string]any](t, rec)
	require.Equal(t, "Farming co-op", upd["description"])
	require.Equal(t, "editor", upd["updated_by"])

	rec = a.do(t, http.MethodPost, "/v1/teams", tk, map[string]any{"name": "Field Ops"})
	require.Equal(t, http.StatusCreated, rec.Code)
	teamID := uint64(decode[map[string]any](t, rec)["id"].(float64))

	rec = a.do(t, http.MethodGet, "/v1/teams/1/organization", tk, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/teams/map", tk, map[string]any{"team_id": teamID, "organization_id": orgID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/v1/teams/map", tk, map[string]any{"team_id": teamID, "organization_id": 2})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, service.MsgAlreadyMapped, errorOf(t, rec))
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/v1/teams/map", tk, map[string]any{"team_id": teamID}).Code)

	rec = a.do(t, http.MethodGet, "/v1/teams/1", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[map[string]any](t, rec)
	require.EqualValues(t, orgID, view["organization_id"])
	require.Equal(t, "Green Fields", view["organization_name"])

	rec = a.do(t, http.MethodGet, "/v1/organizations/1/teams", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	teams := decode[service.OrganizationTeams](t, rec)
	require.Equal(t, 1, teams.TotalTeams)
	require.Equal(t, "Field Ops", teams.Teams[0].Name)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/v1/teams/1/unmap", tk, nil).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/v1/teams/1/unmap", tk, nil).Code)
	rec = a.do(t, http.MethodGet, "/v1/organizations/1/teams", tk, nil)
	require.Equal(t, 0, decode[service.OrganizationTeams](t, rec).TotalTeams)

	rec = a.do(t, http.MethodDelete, "/v1/organizations/1", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Organization deleted successfully", decode[map[string]string](t, rec)["message"])
	require.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/organizations/1", tk, nil).Code)
	rec = a.do(t, http.MethodGet, "/v1/organizations/1?include_deleted=true", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ops@example.org", decode[map[string]any](t, rec)["deleted_by"])

	rec = a.do(t, http.MethodGet, "/v1/organizations/count", tk, nil)
	require.JSONEq(t, `{"count":1,"include_deleted":false}`, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/organizations/1/restore?restored_by=auditor", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "auditor", decode[map[string]any](t, rec)["updated_by"])

	require.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, "/v1/organizations/1/hard", tk, nil).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/v1/organizations/1/hard", admin, nil).Code)
	require.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/organizations/1?include_deleted=true", tk, nil).Code)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/v1/teams/1", tk, nil).Code)
	rec = a.do(t, http.MethodGet, "/v1/teams?include_deleted=true", tk, nil)
	require.EqualValues(t, 1, decode[service.TeamList](t, rec).Total)
	rec = a.do(t, http.MethodPost, "/v1/teams/1/restore", tk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPut, "/v1/teams/1", tk, map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "inactive", decode[map[string]any](t, rec)["status"])
}
