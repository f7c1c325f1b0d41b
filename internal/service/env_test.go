package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/repository/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu       sync.Mutex
	resets   []PasswordResetEmail
	welcomes []WelcomeEmail
}

func (n *recordingNotifier) PasswordReset(_ context.Context, m PasswordResetEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, m)
	return nil
}

func (n *recordingNotifier) Welcome(_ context.Context, m WelcomeEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, m)
	return nil
}

type testEnv struct {
	store    *memory.Store
	clock    *fakeClock
	notifier *recordingNotifier

	captchas  *CaptchaService
	passwords *PasswordService
	auth      *AuthService
	users     *UserService
	orgs      *OrganizationService
	teams     *TeamService
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:        "test-secret",
		AccessTTLMin:     30,
		BcryptCost:       bcrypt.MinCost,
		CaptchaTTL:       5 * time.Minute,
		CaptchaLength:    6,
		ResetTokenTTL:    time.Hour,
		TempPasswordTTL:  24 * time.Hour,
		SignupEchoPasswd: true,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()
	log := zap.NewNop()
	e := &testEnv{
		store:    memory.New(),
		clock:    &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
	}
	e.captchas = NewCaptchaService(e.store.Captchas(), cfg, log)
	e.passwords = NewPasswordService(e.store.Users(), e.notifier, cfg, log)
	e.auth = NewAuthService(e.store.Users(), e.captchas, e.passwords, e.notifier, cfg, log)
	e.users = NewUserService(e.store.Users(), log)
	e.orgs = NewOrganizationService(e.store.Organizations(), e.store.Teams(), log)
	e.teams = NewTeamService(e.store.Teams(), e.store.Organizations(), log)

	e.captchas.now = e.clock.Now
	e.passwords.now = e.clock.Now
	e.auth.now = e.clock.Now
	e.users.now = e.clock.Now
	e.orgs.now = e.clock.Now
	e.teams.now = e.clock.Now
	return e
}

// solveCaptcha issues a captcha and returns its id and answer.
func (e *testEnv) solveCaptcha(t *testing.T) (string, string) {
	t.Helper()
	ch, err := e.captchas.Issue(context.Background())
	require.NoError(t, err)
	c, err := e.store.Captchas().Get(context.Background(), ch.CaptchaID)
	require.NoError(t, err)
	return ch.CaptchaID, c.Text
}

func (e *testEnv) signin(t *testing.T, email, password string) (SigninResult, error) {
	t.Helper()
	id, text := e.solveCaptcha(t)
	return e.auth.Signin(context.Background(), SigninInput{Email: email, Password: password, CaptchaID: id, CaptchaText: text})
}

func signupInput(email, password string) SignupInput {
	return SignupInput{
		FirstName: "Asha",
		LastName:  "Rao",
		EmailID:   email,
		Org: SignupOrg{
			OrgType: "Startup",
			OrgName: "Acme Labs",
			OrgDetails: OrgDetails{
				IndustryType: "Agritech",
				IsStartup:    true,
			},
		},
		TncURL:   "https://example.org/tnc",
		Password: password,
	}
}

func requireKind(t *testing.T, err error, k Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, k, KindOf(err), err.Error())
}
