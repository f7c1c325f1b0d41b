package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateResetTokenUnknownEmail(t *testing.T) {
	e := newTestEnv(t)
	tok, err := e.passwords.CreateResetToken(context.Background(), "ghost@example.org")
	require.NoError(t, err)
	require.Empty(t, tok)

	require.NoError(t, e.passwords.RequestReset(context.Background(), "ghost@example.org"))
	require.Empty(t, e.notifier.resets)
}

func TestResetPasswordFlow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.auth.Signup(ctx, signupInput("r@example.org", ""))
	require.NoError(t, err)

	require.NoError(t, e.passwords.RequestReset(ctx, "r@example.org"))
	require.Len(t, e.notifier.resets, 1)
	token := e.notifier.resets[0].ResetToken

	u, err := e.store.Users().GetByEmail(ctx, "r@example.org")
	require.NoError(t, err)
	require.NotEqual(t, token, u.PasswordResetToken, "only the digest is stored")

	require.NoError(t, e.passwords.ResetPassword(ctx, token, "N3wPassword!"))

	u, err = e.store.Users().GetByEmail(ctx, "r@example.org")
	require.NoError(t, err)
	require.False(t, u.IsFresh)
	require.Empty(t, u.PasswordResetToken)
	require.Nil(t, u.PasswordResetExpiresAt)
	require.Nil(t, u.TempPasswordExpiresAt)

	out, err := e.signin(t, "r@example.org", "N3wPassword!")
	require.NoError(t, err)
	require.False(t, out.PasswordChangeRequired)

	// A used token cannot be replayed.
	err = e.passwords.ResetPassword(ctx, token, "Other1234!")
	requireKind(t, err, KindConflict)
}

func TestResetTokenReplacesPrevious(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.auth.Signup(ctx, signupInput("s@example.org", "Str0ngPass!"))
	require.NoError(t, err)

	first, err := e.passwords.CreateResetToken(ctx, "s@example.org")
	require.NoError(t, err)
	second, err := e.passwords.CreateResetToken(ctx, "s@example.org")
	require.NoError(t, err)

	requireKind(t, e.passwords.ResetPassword(ctx, first, "N3wPassword!"), KindConflict)
	require.NoError(t, e.passwords.ResetPassword(ctx, second, "N3wPassword!"))
}

func TestExpiredResetTokenFailsAndIsCleared(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.auth.Signup(ctx, signupInput("x@example.org", "Str0ngPass!"))
	require.NoError(t, err)
	token, err := e.passwords.CreateResetToken(ctx, "x@example.org")
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	err = e.passwords.ResetPassword(ctx, token, "N3wPassword!")
	requireKind(t, err, KindConflict)
	require.Equal(t, MsgInvalidResetToken, err.Error())

	u, err := e.store.Users().GetByEmail(ctx, "x@example.org")
	require.NoError(t, err)
	require.Empty(t, u.PasswordResetToken)
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	e := newTestEnv(t)
	requireKind(t, e.passwords.ResetPassword(context.Background(), "tok", "short"), KindValidation)
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.auth.Signup(ctx, signupInput("c@example.org", "Str0ngPass!"))
	require.NoError(t, err)
	u, err := e.store.Users().GetByEmail(ctx, "c@example.org")
	require.NoError(t, err)

	requireKind(t, e.passwords.ChangePassword(ctx, u.ID, "wrong-one", "N3wPassword!"), KindUnauthorized)
	requireKind(t, e.passwords.ChangePassword(ctx, 999, "Str0ngPass!", "N3wPassword!"), KindNotFound)

	require.NoError(t, e.passwords.ChangePassword(ctx, u.ID, "Str0ngPass!", "N3wPassword!"))
	_, err = e.signin(t, "c@example.org", "Str0ngPass!")
	requireKind(t, err, KindUnauthorized)
	_, err = e.signin(t, "c@example.org", "N3wPassword!")
	require.NoError(t, err)
}

func TestCleanupExpiredTokens(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.auth.Signup(ctx, signupInput("k@example.org", "Str0ngPass!"))
	require.NoError(t, err)
	_, err = e.passwords.CreateResetToken(ctx, "k@example.org")
	require.NoError(t, err)

	n, err := e.passwords.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	e.clock.Advance(2 * time.Hour)
	n, err = e.passwords.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
