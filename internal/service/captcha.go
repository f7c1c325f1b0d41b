package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
	"github.com/iliyamo/adopter-login-api/internal/utils"
)

// CaptchaChallenge is what a client receives: an id to echo back and a
// base64 PNG to read the text from.
type CaptchaChallenge struct {
	CaptchaID string `json:"captcha_id"`
	Image     string `json:"image"`
}

// CaptchaService issues and verifies single-use captchas.
type CaptchaService struct {
	store  repository.CaptchaStore
	ttl    time.Duration
	length int
	log    *zap.Logger
	now    func() time.Time
}

func NewCaptchaService(store repository.CaptchaStore, cfg config.Config, log *zap.Logger) *CaptchaService {
	return &CaptchaService{store: store, ttl: cfg.CaptchaTTL, length: cfg.CaptchaLength, log: log, now: time.Now}
}

// Issue creates and stores a new captcha.
func (s *CaptchaService) Issue(ctx context.Context) (CaptchaChallenge, error) {
	text, err := utils.CaptchaText(s.length)
	if err != nil {
		return CaptchaChallenge{}, err
	}
	img, err := utils.RenderCaptcha(text)
	if err != nil {
		return CaptchaChallenge{}, err
	}
	now := s.now().UTC()
	c := model.Captcha{
		CaptchaID: uuid.NewString(),
		Text:      text,
		Image:     img,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, &c); err != nil {
		return CaptchaChallenge{}, err
	}
	return CaptchaChallenge{CaptchaID: c.CaptchaID, Image: c.Image}, nil
}

// Verify reports whether text answers captcha id. It fails closed: an
// unknown, used or expired captcha, a mismatch or a store error all give
// false. A correct answer consumes the captcha.
func (s *CaptchaService) Verify(ctx context.Context, id, text string) bool {
	id, text = strings.TrimSpace(id), strings.TrimSpace(text)
	if id == "" || text == "" {
		return false
	}
	c, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error("captcha lookup failed", zap.Error(err))
		}
		return false
	}
	if c.IsUsed || c.Expired(s.now()) || c.Text != text {
		return false
	}
	ok, err := s.store.MarkUsed(ctx, id)
	if err != nil {
		s.log.Error("captcha consume failed", zap.Error(err))
		return false
	}
	return ok
}

// Cleanup deletes expired captchas and returns how many were removed.
func (s *CaptchaService) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}
