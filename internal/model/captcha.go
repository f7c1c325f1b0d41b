package model

import "time"

// Captcha is a row of the `captchas` table. Text is the expected answer;
// Image is the base64 PNG handed to the client.
type Captcha struct {
	ID        uint64
	CaptchaID string
	Text      string
	Image     string
	CreatedAt time.Time
	ExpiresAt time.Time
	IsUsed    bool
}

// Expired reports whether the captcha can no longer be verified at now.
func (c Captcha) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
