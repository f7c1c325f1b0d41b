package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, e *testEnv, n int) []uint64 {
	t.Helper()
	ctx := context.Background()
	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("user%02d@example.org", i)
		_, err := e.auth.Signup(ctx, signupInput(email, "Str0ngPass!"))
		require.NoError(t, err)
		u, err := e.store.Users().GetByEmail(ctx, email)
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	return ids
}

func TestUserListPaging(t *testing.T) {
	e := newTestEnv(t)
	ids := seedUsers(t, e, 5)
	ctx := context.Background()

	res, err := e.users.List(ctx, 2, 2, false)
	require.NoError(t, err)
	require.EqualValues(t, 5, res.Total)
	require.Equal(t, 2, res.Page)
	require.Equal(t, 2, res.PerPage)
	require.Len(t, res.Users, 2)
	require.Equal(t, ids[2], res.Users[0].ID)
	require.Equal(t, ids[3], res.Users[1].ID)

	res, err = e.users.List(ctx, 10, 2, false)
	require.NoError(t, err)
	require.Empty(t, res.Users)

	_, err = e.users.List(ctx, -1, 10, false)
	requireKind(t, err, KindValidation)
	_, err = e.users.List(ctx, 0, MaxUserLimit+1, false)
	requireKind(t, err, KindValidation)
}

func TestUserSoftDeleteAndRestore(t *testing.T) {
	e := newTestEnv(t)
	ids := seedUsers(t, e, 3)
	ctx := context.Background()

	u, err := e.users.SoftDelete(ctx, ids[1])
	require.NoError(t, err)
	require.True(t, u.IsDeleted)
	require.NotNil(t, u.DeletedOn)

	_, err = e.users.SoftDelete(ctx, ids[1])
	requireKind(t, err, KindNotFound)

	live, err := e.users.List(ctx, 0, 10, false)
	require.NoError(t, err)
	require.EqualValues(t, 2, live.Total)

	all, err := e.users.List(ctx, 0, 10, true)
	require.NoError(t, err)
	require.EqualValues(t, 3, all.Total)

	// Lookups by id still see deleted users.
	got, err := e.users.GetByID(ctx, ids[1])
	require.NoError(t, err)
	require.True(t, got.IsDeleted)

	u, err = e.users.Restore(ctx, ids[1])
	require.NoError(t, err)
	require.False(t, u.IsDeleted)
	require.Nil(t, u.DeletedOn)

	_, err = e.users.Restore(ctx, ids[1])
	requireKind(t, err, KindValidation)
	_, err = e.users.Restore(ctx, 999)
	requireKind(t, err, KindNotFound)
}

func TestUserGetByEmail(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e, 1)

	u, err := e.users.GetByEmail(context.Background(), " USER00@example.org")
	require.NoError(t, err)
	require.Equal(t, "user00@example.org", u.Email)
	require.Empty(t, u.PasswordResetToken)

	_, err = e.users.GetByEmail(context.Background(), "nobody@example.org")
	requireKind(t, err, KindNotFound)
	require.Equal(t, "User not found", err.Error())
}
