package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
)

// Pagination bounds for user listings.
const (
	DefaultUserLimit = 100
	MaxUserLimit     = 1000
)

// UserList is one page of user profiles.
type UserList struct {
	Users   []model.User `json:"users"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// UserService exposes user profiles and their soft delete lifecycle.
type UserService struct {
	users repository.UserStore
	log   *zap.Logger
	now   func() time.Time
}

func NewUserService(users repository.UserStore, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log, now: time.Now}
}

// List returns users ordered by id. limit must be within 1..MaxUserLimit.
func (s *UserService) List(ctx context.Context, skip, limit int, includeDeleted bool) (UserList, error) {
	if err := pageBounds(skip, limit, MaxUserLimit); err != nil {
		return UserList{}, err
	}
	users, total, err := s.users.List(ctx, skip, limit, includeDeleted)
	if err != nil {
		return UserList{}, err
	}
	return UserList{Users: users, Total: total, Page: skip/limit + 1, PerPage: limit}, nil
}

// GetByID returns a user profile, including soft-deleted users.
func (s *UserService) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return s.lookup(s.users.GetByID(ctx, id))
}

// GetByEmail returns a user profile by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return s.lookup(s.users.GetByEmail(ctx, email))
}

func (s *UserService) lookup(u model.User, err error) (model.User, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, notFound("User")
	}
	return u, err
}

// SoftDelete hides a user from listings and blocks signin.
func (s *UserService) SoftDelete(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if u.IsDeleted {
		return model.User{}, notFound("User")
	}
	at := s.now().UTC()
	if err := s.users.SetDeleted(ctx, id, true, &at); err != nil {
		return model.User{}, err
	}
	s.log.Info("user deleted", zap.Uint64("user_id", id))
	u.IsDeleted, u.DeletedOn = true, &at
	return u, nil
}

// Restore undoes SoftDelete. The user must currently be deleted.
func (s *UserService) Restore(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if !u.IsDeleted {
		return model.User{}, validationf("User is not deleted")
	}
	if err := s.users.SetDeleted(ctx, id, false, nil); err != nil {
		return model.User{}, err
	}
	s.log.Info("user restored", zap.Uint64("user_id", id))
	u.IsDeleted, u.DeletedOn = false, nil
	return u, nil
}
