// Package memory implements the repository store interfaces in process
// memory. It backs STORE=memory local runs and the service and handler
// tests. All stores share one mutex so cross-table operations (team
// mappings, organization hard delete) stay atomic.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
)

// Store holds every table. Use the accessor methods to obtain the
// interface views.
type Store struct {
	mu sync.Mutex

	users    map[uint64]model.User
	captchas map[string]model.Captcha
	orgs     map[uint64]model.Organization
	teams    map[uint64]model.Team
	mappings map[uint64]model.TeamOrganizationMapping // keyed by team id

	nextUser, nextCaptcha, nextOrg, nextTeam, nextMapping uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    map[uint64]model.User{},
		captchas: map[string]model.Captcha{},
		orgs:     map[uint64]model.Organization{},
		teams:    map[uint64]model.Team{},
		mappings: map[uint64]model.TeamOrganizationMapping{},
	}
}

var _ repository.Stores = (*Store)(nil)

func (s *Store) Users() repository.UserStore                 { return userStore{s} }
func (s *Store) Captchas() repository.CaptchaStore           { return captchaStore{s} }
func (s *Store) Organizations() repository.OrganizationStore { return orgStore{s} }
func (s *Store) Teams() repository.TeamStore                 { return teamStore{s} }

func lowerContains(field, term string) bool {
	term = strings.TrimSpace(term)
	return term == "" || strings.Contains(strings.ToLower(field), strings.ToLower(term))
}

func eqOrEmpty(field, want string) bool {
	want = strings.TrimSpace(want)
	return want == "" || field == want
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	return append([]T{}, items[skip:end]...)
}

// sortBy orders items with the same whitelist and tie-break as the SQL
// stores. key returns the comparable value of a column.
func sortBy[T any](items []T, allowed map[string]bool, p repository.Page, key func(T, string) string, id func(T) uint64) {
	col, desc := repository.ResolveSort(allowed, p.SortBy, p.SortOrder)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i], col), key(items[j], col)
		if a == b {
			if desc {
				return id(items[i]) > id(items[j])
			}
			return id(items[i]) < id(items[j])
		}
		if desc {
			return a > b
		}
		return a < b
	})
}

// timeKey renders a timestamp so string order equals time order.
func timeKey(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05.000000000") }

func idKey(id uint64) string { return fmt.Sprintf("%020d", id) }

type userStore struct{ s *Store }

func (u userStore) Create(_ context.Context, user *model.User) (uint64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = repository.NormalizeEmail(user.Email)
	for _, other := range s.users {
		if other.Email == user.Email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextUser++
	user.ID = s.nextUser
	if user.Org != nil {
		org := *user.Org
		org.UserID = user.ID
		user.Org = &org
	}
	s.users[user.ID] = cloneUser(*user)
	return user.ID, nil
}

func (u userStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return cloneUser(user), nil
}

func (u userStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	return u.find(func(m model.User) bool { return m.Email == repository.NormalizeEmail(email) })
}

func (u userStore) GetByResetToken(_ context.Context, tokenHash string) (model.User, error) {
	if tokenHash == "" {
		return model.User{}, repository.ErrNotFound
	}
	return u.find(func(m model.User) bool { return m.PasswordResetToken == tokenHash })
}

func (u userStore) find(match func(model.User) bool) (model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if match(user) {
			return cloneUser(user), nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (u userStore) List(_ context.Context, skip, limit int, includeDeleted bool) ([]model.User, int64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		if user.IsDeleted && !includeDeleted {
			continue
		}
		all = append(all, cloneUser(user))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, skip, limit), int64(len(all)), nil
}

func (u userStore) update(id uint64, fn func(*model.User)) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&user)
	s.users[id] = user
	return nil
}

func (u userStore) UpdateLastLogin(_ context.Context, id uint64, at time.Time) error {
	return u.update(id, func(m *model.User) { t := at.UTC(); m.LastLogin = &t })
}

func (u userStore) SetResetToken(_ context.Context, id uint64, tokenHash string, expiresAt time.Time) error {
	return u.update(id, func(m *model.User) {
		t := expiresAt.UTC()
		m.PasswordResetToken, m.PasswordResetExpiresAt = tokenHash, &t
	})
}

func (u userStore) ClearResetToken(_ context.Context, id uint64) error {
	return u.update(id, func(m *model.User) { m.PasswordResetToken, m.PasswordResetExpiresAt = "", nil })
}

func (u userStore) UpdatePassword(_ context.Context, id uint64, hash string, at time.Time) error {
	return u.update(id, func(m *model.User) {
		m.PasswordHash = hash
		m.IsFresh = false
		m.PasswordResetToken, m.PasswordResetExpiresAt = "", nil
		m.TempPasswordExpiresAt = nil
		m.UpdatedAt = at.UTC()
	})
}

func (u userStore) SetDeleted(_ context.Context, id uint64, deleted bool, deletedOn *time.Time) error {
	return u.update(id, func(m *model.User) { m.IsDeleted, m.DeletedOn = deleted, deletedOn })
}

func (u userStore) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, user := range s.users {
		if user.PasswordResetExpiresAt != nil && user.PasswordResetExpiresAt.Before(now) {
			user.PasswordResetToken, user.PasswordResetExpiresAt = "", nil
			s.users[id] = user
			n++
		}
	}
	return n, nil
}

// cloneUser copies the slices and pointers so callers cannot mutate the
// stored row. Nil profile lists become empty, matching the SQL store.
func cloneUser(u model.User) model.User {
	if u.Org != nil {
		o := *u.Org
		u.Org = &o
	}
	if u.MouInfo != nil {
		m := *u.MouInfo
		u.MouInfo = &m
	}
	u.SupervisorDetails = append([]model.SupervisorDetail{}, u.SupervisorDetails...)
	u.ReferenceDocuments = append([]model.ReferenceDocument{}, u.ReferenceDocuments...)
	u.AssociatedManagers = append([]model.AssociatedManager{}, u.AssociatedManagers...)
	return u
}

type captchaStore struct{ s *Store }

func (c captchaStore) Create(_ context.Context, cp *model.Captcha) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.captchas[cp.CaptchaID]; ok {
		return repository.ErrDuplicate
	}
	s.nextCaptcha++
	cp.ID = s.nextCaptcha
	s.captchas[cp.CaptchaID] = *cp
	return nil
}

func (c captchaStore) Get(_ context.Context, captchaID string) (model.Captcha, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.captchas[captchaID]
	if !ok {
		return model.Captcha{}, repository.ErrNotFound
	}
	return cp, nil
}

func (c captchaStore) MarkUsed(_ context.Context, captchaID string) (bool, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.captchas[captchaID]
	if !ok || cp.IsUsed {
		return false, nil
	}
	cp.IsUsed = true
	s.captchas[captchaID] = cp
	return true, nil
}

func (c captchaStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, cp := range s.captchas {
		if cp.Expired(now) {
			delete(s.captchas, id)
			n++
		}
	}
	return n, nil
}
