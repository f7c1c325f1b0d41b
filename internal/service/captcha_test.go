package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/adopter-login-api/internal/model"
)

func TestCaptchaVerifiesOnlyOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id, text := e.solveCaptcha(t)

	require.True(t, e.captchas.Verify(ctx, id, text))
	require.False(t, e.captchas.Verify(ctx, id, text))
}

func TestCaptchaVerifyIsExactAfterTrim(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	now := e.clock.Now()
	require.NoError(t, e.store.Captchas().Create(ctx, &model.Captcha{
		CaptchaID: "fixed", Text: "AB12C", CreatedAt: now, ExpiresAt: now.Add(time.Minute),
	}))

	require.False(t, e.captchas.Verify(ctx, "fixed", strings.ToLower("AB12C")))
	require.True(t, e.captchas.Verify(ctx, "fixed", "  AB12C "))
}

func TestCaptchaExpiredFailsWithCorrectText(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id, text := e.solveCaptcha(t)

	e.clock.Advance(5 * time.Minute)
	require.False(t, e.captchas.Verify(ctx, id, text))
}

func TestCaptchaMismatchDoesNotConsume(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id, text := e.solveCaptcha(t)

	require.False(t, e.captchas.Verify(ctx, id, text+"X"))
	require.False(t, e.captchas.Verify(ctx, "unknown", text))
	require.False(t, e.captchas.Verify(ctx, id, ""))
	require.True(t, e.captchas.Verify(ctx, id, text))
}

func TestCaptchaCleanupRemovesExpired(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.solveCaptcha(t)
	e.clock.Advance(10 * time.Minute)
	fresh, _ := e.solveCaptcha(t)

	n, err := e.captchas.Cleanup(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	_, err = e.store.Captchas().Get(ctx, fresh)
	require.NoError(t, err)
}
