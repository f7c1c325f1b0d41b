package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/adopter-login-api/internal/model"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, username,
	designation, gender, email_id, personal_email, phone, status,
	user_type, product_access, additional_contacts,
	is_fresh, is_profile_updated, is_existing_user, is_test_user, is_deleted, deleted_on,
	pending_req_count, last_login, tnc_url, tnc_accepted, is_parichay,
	org_type, org_name, org_details, stage_completed, is_external,
	created_at, updated_at, temp_password_expires_at, password_reset_token, password_reset_expires_at`

// UserRepo is the MySQL UserStore.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts the user row and its organization profile atomically.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (id uint64, err error) {
	u.Email = NormalizeEmail(u.Email)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO users
		(first_name, last_name, email, password_hash, role, username, email_id, status,
		 user_type, product_access, is_fresh, is_profile_updated, is_existing_user,
		 tnc_url, tnc_accepted, org_type, org_name, org_details, stage_completed, is_external,
		 created_at, updated_at, temp_password_expires_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.Username, u.EmailID, u.Status,
		u.UserType, u.ProductAccess, u.IsFresh, u.IsProfileUpdated, u.IsExistingUser,
		u.TncURL, u.TncAccepted, u.OrgType, u.OrgName, u.OrgDetails, u.StageCompleted, u.IsExternal,
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(), u.TempPasswordExpiresAt)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	last, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	id = uint64(last)

	if o := u.Org; o != nil {
		_, err = tx.ExecContext(ctx, `INSERT INTO user_organizations
			(user_id, org_name, org_type, org_website, ministry_name, department_name,
			 address_type, address, pincode, state, city, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			id, o.OrgName, o.OrgType, o.OrgWebsite, o.MinistryName, o.DepartmentName,
			o.AddressType, o.Address, o.Pincode, o.State, o.City, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("insert user organization: %w", err)
		}
		o.UserID = id
	}
	u.ID = id
	return id, nil
}

// GetByID fetches a user aggregate by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail fetches a user aggregate by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "email = ?", NormalizeEmail(email))
}

func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string) (model.User, error) {
	if tokenHash == "" {
		return model.User{}, ErrNotFound
	}
	return r.getOne(ctx, "password_reset_token = ?", tokenHash)
}

func (r *UserRepo) getOne(ctx context.Context, cond string, arg any) (model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond+" LIMIT 1", arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	users := []model.User{u}
	if err := r.loadProfiles(ctx, users); err != nil {
		return model.User{}, err
	}
	return users[0], nil
}

// List returns one page of users ordered by id plus the total row count.
func (r *UserRepo) List(ctx context.Context, skip, limit int, includeDeleted bool) ([]model.User, int64, error) {
	cond := " WHERE is_deleted = 0"
	if includeDeleted {
		cond = ""
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+cond).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users"+cond+" ORDER BY id ASC LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadProfiles(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.execOne(ctx, "UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
}

func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, tokenHash string, expiresAt time.Time) error {
	return r.execOne(ctx,
		"UPDATE users SET password_reset_token = ?, password_reset_expires_at = ? WHERE id = ?",
		tokenHash, expiresAt.UTC(), id)
}

func (r *UserRepo) ClearResetToken(ctx context.Context, id uint64) error {
	return r.execOne(ctx,
		"UPDATE users SET password_reset_token = NULL, password_reset_expires_at = NULL WHERE id = ?", id)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = ?, is_fresh = 0,
		password_reset_token = NULL, password_reset_expires_at = NULL,
		temp_password_expires_at = NULL, updated_at = ? WHERE id = ?`, hash, at.UTC(), id)
}

func (r *UserRepo) SetDeleted(ctx context.Context, id uint64, deleted bool, deletedOn *time.Time) error {
	return r.execOne(ctx, "UPDATE users SET is_deleted = ?, deleted_on = ? WHERE id = ?", deleted, deletedOn, id)
}

// ClearExpiredResetTokens drops reset tokens whose expiry has passed.
func (r *UserRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_reset_token = NULL, password_reset_expires_at = NULL
		WHERE password_reset_expires_at IS NOT NULL AND password_reset_expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execOne runs an UPDATE addressed by primary key and maps "no such row"
// to ErrNotFound.
func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return requireOne(res)
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	var username, designation, gender, emailID, personalEmail, phone sql.NullString
	var tncURL, orgType, orgName, stage, resetToken sql.NullString
	var updatedAt sql.NullTime
	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &username,
		&designation, &gender, &emailID, &personalEmail, &phone, &u.Status,
		&u.UserType, &u.ProductAccess, &u.AdditionalContacts,
		&u.IsFresh, &u.IsProfileUpdated, &u.IsExistingUser, &u.IsTestUser, &u.IsDeleted, &u.DeletedOn,
		&u.PendingReqCount, &u.LastLogin, &tncURL, &u.TncAccepted, &u.IsParichay,
		&orgType, &orgName, &u.OrgDetails, &stage, &u.IsExternal,
		&u.CreatedAt, &updatedAt, &u.TempPasswordExpiresAt, &resetToken, &u.PasswordResetExpiresAt)
	if err != nil {
		return model.User{}, err
	}
	u.Username, u.Designation, u.Gender = username.String, designation.String, gender.String
	u.EmailID, u.PersonalEmail, u.Phone = emailID.String, personalEmail.String, phone.String
	u.TncURL, u.OrgType, u.OrgName = tncURL.String, orgType.String, orgName.String
	u.StageCompleted, u.PasswordResetToken = stage.String, resetToken.String
	u.UpdatedAt = u.CreatedAt
	if updatedAt.Valid {
		u.UpdatedAt = updatedAt.Time
	}
	return u, nil
}
