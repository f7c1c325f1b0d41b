package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/adopter-login-api/internal/model"
)

// UserStore persists users and their profile sub-records. Lookups return
// the full aggregate (organization profile, supervisors, MoU, documents,
// managers) including soft-deleted users; callers decide visibility.
type UserStore interface {
	// Create inserts the user and, when set, its organization profile in
	// one transaction. It returns ErrEmailExists on a duplicate email.
	Create(ctx context.Context, u *model.User) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// GetByResetToken looks a user up by the SHA-256 digest of a reset token.
	GetByResetToken(ctx context.Context, tokenHash string) (model.User, error)
	List(ctx context.Context, skip, limit int, includeDeleted bool) ([]model.User, int64, error)
	UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error
	SetResetToken(ctx context.Context, id uint64, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uint64) error
	// UpdatePassword stores a new hash and clears the reset token, the
	// temporary password expiry and the is_fresh flag.
	UpdatePassword(ctx context.Context, id uint64, hash string, at time.Time) error
	// SetDeleted toggles the soft delete flag; deletedOn is nil on restore.
	SetDeleted(ctx context.Context, id uint64, deleted bool, deletedOn *time.Time) error
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// CaptchaStore persists issued captchas.
type CaptchaStore interface {
	Create(ctx context.Context, c *model.Captcha) error
	Get(ctx context.Context, captchaID string) (model.Captcha, error)
	// MarkUsed flips is_used only when it is still unset and reports
	// whether this call performed the flip.
	MarkUsed(ctx context.Context, captchaID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OrganizationStore persists managed organizations.
type OrganizationStore interface {
	Create(ctx context.Context, o *model.Organization) (uint64, error)
	Get(ctx context.Context, id uint64, includeDeleted bool) (model.Organization, error)
	// NameTaken reports whether a non-deleted organization other than
	// excludeID already uses name (case-insensitive).
	NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error)
	List(ctx context.Context, f OrganizationFilter, p Page) ([]model.Organization, int64, error)
	Search(ctx context.Context, term string, limit int) ([]model.Organization, error)
	// Update writes every mutable column of o.
	Update(ctx context.Context, o *model.Organization) error
	SoftDelete(ctx context.Context, id uint64, at time.Time, actor string) error
	Restore(ctx context.Context, id uint64, at time.Time, actor string) error
	// HardDelete removes the row and every mapping pointing at it.
	HardDelete(ctx context.Context, id uint64) error
	Count(ctx context.Context, includeDeleted bool) (int64, error)
}

// TeamStore persists teams and their organization mapping.
type TeamStore interface {
	Create(ctx context.Context, t *model.Team) (uint64, error)
	Get(ctx context.Context, id uint64, includeDeleted bool) (model.Team, error)
	NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error)
	List(ctx context.Context, f TeamFilter, p Page) ([]model.Team, int64, error)
	Update(ctx context.Context, t *model.Team) error
	// SoftDelete flags the team deleted and deactivates its mapping.
	SoftDelete(ctx context.Context, id uint64, at time.Time, actor string) error
	Restore(ctx context.Context, id uint64, at time.Time, actor string) error

	// ActiveMapping returns the team's active mapping or ErrNotFound.
	ActiveMapping(ctx context.Context, teamID uint64) (model.TeamOrganizationMapping, error)
	// Map activates the team's mapping for orgID. An active mapping to the
	// same organization is returned unchanged; one to another organization
	// yields ErrConflict.
	Map(ctx context.Context, teamID, orgID uint64, actor string, at time.Time) (model.TeamOrganizationMapping, error)
	// Unmap deactivates the active mapping and reports whether one existed.
	Unmap(ctx context.Context, teamID uint64) (bool, error)
	// TeamsByOrganization lists non-deleted teams actively mapped to orgID.
	TeamsByOrganization(ctx context.Context, orgID uint64) ([]model.Team, error)
}

// Stores groups the per-table views of one backend.
type Stores interface {
	Users() UserStore
	Captchas() CaptchaStore
	Organizations() OrganizationStore
	Teams() TeamStore
}

// SQLStores is the MySQL backend.
type SQLStores struct{ db *sql.DB }

var _ Stores = SQLStores{}

func NewSQLStores(db *sql.DB) SQLStores { return SQLStores{db: db} }

func (s SQLStores) Users() UserStore                 { return NewUserRepo(s.db) }
func (s SQLStores) Captchas() CaptchaStore           { return NewCaptchaRepo(s.db) }
func (s SQLStores) Organizations() OrganizationStore { return NewOrganizationRepo(s.db) }
func (s SQLStores) Teams() TeamStore                 { return NewTeamRepo(s.db) }
