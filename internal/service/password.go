package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
	"github.com/iliyamo/adopter-login-api/internal/utils"
)

// MinPasswordLength is the shortest password accepted on reset or change.
const MinPasswordLength = 8

// PasswordService owns password hashing and the reset token lifecycle.
// A user has at most one reset token: issuing a new one replaces the old,
// and using or expiring it clears it.
type PasswordService struct {
	users    repository.UserStore
	notifier Notifier
	cost     int
	resetTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewPasswordService(users repository.UserStore, notifier Notifier, cfg config.Config, log *zap.Logger) *PasswordService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PasswordService{
		users:    users,
		notifier: notifier,
		cost:     cfg.BcryptCost,
		resetTTL: cfg.ResetTokenTTL,
		log:      log,
		now:      time.Now,
	}
}

// Hash returns the bcrypt hash of plain at the configured cost.
func (s *PasswordService) Hash(plain string) (string, error) {
	return utils.HashPassword(plain, s.cost)
}

// GenerateTempPassword returns a random initial password.
func (s *PasswordService) GenerateTempPassword() (string, error) {
	return utils.GenerateTempPassword()
}

// CreateResetToken issues a reset token for email and returns it in raw
// form. Unknown and deleted accounts yield "" and no error.
func (s *PasswordService) CreateResetToken(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if u.IsDeleted {
		return "", nil
	}
	return s.issueToken(ctx, u)
}

func (s *PasswordService) issueToken(ctx context.Context, u model.User) (string, error) {
	raw, err := utils.NewResetToken()
	if err != nil {
		return "", err
	}
	if err := s.users.SetResetToken(ctx, u.ID, utils.HashToken(raw), s.now().Add(s.resetTTL)); err != nil {
		return "", err
	}
	return raw, nil
}

// RequestReset issues a token and emails it. The outcome is the same
// whether or not the account exists.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	token, err := s.CreateResetToken(ctx, email)
	if err != nil || token == "" {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	s.log.Info("password reset issued", zap.Uint64("user_id", u.ID))
	if err := s.notifier.PasswordReset(ctx, PasswordResetEmail{To: u.Email, FirstName: u.FirstName, ResetToken: token}); err != nil {
		s.log.Warn("password reset email not sent", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword replaces the password of the user owning token. Unknown
// and expired tokens fail with a conflict; an expired token is cleared.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := checkNewPassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return conflict(MsgInvalidResetToken)
	}
	u, err := s.users.GetByResetToken(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return conflict(MsgInvalidResetToken)
		}
		return err
	}
	now := s.now()
	if u.PasswordResetExpiresAt == nil || !now.Before(*u.PasswordResetExpiresAt) {
		if err := s.users.ClearResetToken(ctx, u.ID); err != nil {
			s.log.Warn("clear expired reset token failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		}
		return conflict(MsgInvalidResetToken)
	}
	if u.IsDeleted {
		return conflict(MsgInvalidResetToken)
	}
	if err := s.setPassword(ctx, u.ID, newPassword, now); err != nil {
		return err
	}
	s.log.Info("password reset completed", zap.Uint64("user_id", u.ID))
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one.
func (s *PasswordService) ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error {
	if err := checkNewPassword(newPassword); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user")
		}
		return err
	}
	if u.IsDeleted {
		return notFound("user")
	}
	if !utils.IsBcryptHash(u.PasswordHash) || !utils.VerifyPassword(u.PasswordHash, current) {
		return unauthorized("Current password is incorrect")
	}
	if err := s.setPassword(ctx, u.ID, newPassword, s.now()); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Uint64("user_id", u.ID))
	return nil
}

func (s *PasswordService) setPassword(ctx context.Context, id uint64, plain string, now time.Time) error {
	hash, err := s.Hash(plain)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash, now)
}

// CleanupExpiredTokens clears every reset token past its expiry.
func (s *PasswordService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.users.ClearExpiredResetTokens(ctx, s.now())
}

func checkNewPassword(p string) error {
	if len(p) < MinPasswordLength {
		return validationf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}
