package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestUserEmailIsUniqueAfterNormalization(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := &model.User{Email: " Asha@Example.org", CreatedAt: t0, Org: &model.UserOrganization{OrgName: "Acme"}}
	id, err := s.Users().Create(ctx, u)
	require.NoError(t, err)
	require.Equal(t, "asha@example.org", u.Email)

	_, err = s.Users().Create(ctx, &model.User{Email: "ASHA@example.org"})
	require.ErrorIs(t, err, repository.ErrEmailExists)

	got, err := s.Users().GetByEmail(ctx, "asha@EXAMPLE.org")
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, id, got.Org.UserID)
	require.NotNil(t, got.SupervisorDetails)
	require.NotNil(t, got.AssociatedManagers)

	// Returned rows are copies.
	got.Org.OrgName = "changed"
	again, err := s.Users().GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Acme", again.Org.OrgName)
}

func TestUserUpdatesOnMissingRow(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.ErrorIs(t, s.Users().UpdateLastLogin(ctx, 42, t0), repository.ErrNotFound)
	require.ErrorIs(t, s.Users().SetDeleted(ctx, 42, true, &t0), repository.ErrNotFound)
	_, err := s.Users().GetByResetToken(ctx, "")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCaptchaMarkUsedOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := &model.Captcha{CaptchaID: "abc", Text: "XY12ZQ", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)}
	require.NoError(t, s.Captchas().Create(ctx, c))
	require.ErrorIs(t, s.Captchas().Create(ctx, &model.Captcha{CaptchaID: "abc"}), repository.ErrDuplicate)

	ok, err := s.Captchas().MarkUsed(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Captchas().MarkUsed(ctx, "abc")
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.Captchas().DeleteExpired(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestTeamMappingLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	org := &model.Organization{Name: "Acme", Status: model.OrgStatusActive, CreatedAt: t0}
	_, err := s.Organizations().Create(ctx, org)
	require.NoError(t, err)
	team := &model.Team{Name: "Platform", Status: model.TeamStatusActive, CreatedAt: t0}
	_, err = s.Teams().Create(ctx, team)
	require.NoError(t, err)

	m, err := s.Teams().Map(ctx, team.ID, org.ID, "ops", t0)
	require.NoError(t, err)
	_, err = s.Teams().Map(ctx, team.ID, org.ID+1, "ops", t0)
	require.ErrorIs(t, err, repository.ErrConflict)

	changed, err := s.Teams().Unmap(ctx, team.ID)
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = s.Teams().Unmap(ctx, team.ID)
	require.NoError(t, err)
	require.False(t, changed)

	reused, err := s.Teams().Map(ctx, team.ID, org.ID, "ops", t0.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, m.ID, reused.ID, "the mapping row is reused")

	require.NoError(t, s.Organizations().HardDelete(ctx, org.ID))
	_, err = s.Teams().ActiveMapping(ctx, team.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrganizationListPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, name := range []string{"Charlie", "alpha", "Bravo"} {
		_, err := s.Organizations().Create(ctx, &model.Organization{Name: name, Status: "active", CreatedAt: t0.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	items, total, err := s.Organizations().List(ctx, repository.OrganizationFilter{}, repository.Page{Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, "Bravo", items[0].Name)
	require.Equal(t, "alpha", items[1].Name)

	items, _, err = s.Organizations().List(ctx, repository.OrganizationFilter{}, repository.Page{Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Charlie", items[0].Name)
}

func TestOrganizationSearchWithoutMatchesIsEmptySlice(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Organizations().Create(ctx, &model.Organization{Name: "Acme", CreatedAt: t0})
	require.NoError(t, err)

	out, err := s.Organizations().Search(ctx, "zzz", 10)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}
