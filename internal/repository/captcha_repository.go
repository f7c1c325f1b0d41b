package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/adopter-login-api/internal/model"
)

// CaptchaRepo is the MySQL CaptchaStore.
type CaptchaRepo struct{ db *sql.DB }

func NewCaptchaRepo(db *sql.DB) *CaptchaRepo { return &CaptchaRepo{db: db} }

func (r *CaptchaRepo) Create(ctx context.Context, c *model.Captcha) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO captchas (captcha_id, captcha_text, image_data, created_at, expires_at, is_used) VALUES (?,?,?,?,?,0)",
		c.CaptchaID, c.Text, c.Image, c.CreatedAt.UTC(), c.ExpiresAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *CaptchaRepo) Get(ctx context.Context, captchaID string) (model.Captcha, error) {
	var c model.Captcha
	err := r.db.QueryRowContext(ctx,
		"SELECT id, captcha_id, captcha_text, image_data, created_at, expires_at, is_used FROM captchas WHERE captcha_id = ? LIMIT 1",
		captchaID).Scan(&c.ID, &c.CaptchaID, &c.Text, &c.Image, &c.CreatedAt, &c.ExpiresAt, &c.IsUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Captcha{}, ErrNotFound
	}
	return c, err
}

// MarkUsed is a compare-and-set on is_used; of two concurrent verifications
// only one sees true.
func (r *CaptchaRepo) MarkUsed(ctx context.Context, captchaID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE captchas SET is_used = 1 WHERE captcha_id = ? AND is_used = 0", captchaID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *CaptchaRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM captchas WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
