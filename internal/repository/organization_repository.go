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

const orgColumns = `id, name, description, org_type, website, email, phone, address, city, state,
	country, pincode, status, org_metadata, is_deleted, created_at, updated_at,
	created_by, updated_by, deleted_at, deleted_by`

// OrganizationRepo is the MySQL OrganizationStore.
type OrganizationRepo struct{ db *sql.DB }

func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{db: db} }

func (r *OrganizationRepo) Create(ctx context.Context, o *model.Organization) (uint64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO organizations
		(name, description, org_type, website, email, phone, address, city, state, country, pincode,
		 status, org_metadata, is_deleted, created_at, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,0,?,?)`,
		o.Name, o.Description, o.OrgType, o.Website, o.Email, o.Phone, o.Address, o.City, o.State,
		o.Country, o.Pincode, o.Status, o.Metadata, o.CreatedAt.UTC(), o.CreatedBy)
	if err != nil {
		return 0, fmt.Errorf("insert organization: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	o.ID = uint64(id)
	return o.ID, nil
}

func (r *OrganizationRepo) Get(ctx context.Context, id uint64, includeDeleted bool) (model.Organization, error) {
	q := "SELECT " + orgColumns + " FROM organizations WHERE id = ?"
	if !includeDeleted {
		q += " AND is_deleted = 0"
	}
	o, err := scanOrganization(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Organization{}, ErrNotFound
	}
	return o, err
}

func (r *OrganizationRepo) NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM organizations WHERE LOWER(name) = ? AND is_deleted = 0 AND id <> ?",
		strings.ToLower(strings.TrimSpace(name)), excludeID).Scan(&n)
	return n > 0, err
}

// List applies the filter, counts the matches and returns one sorted page.
func (r *OrganizationRepo) List(ctx context.Context, f OrganizationFilter, p Page) ([]model.Organization, int64, error) {
	w := organizationWhere(f)
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM organizations"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT " + orgColumns + " FROM organizations" + w.sql() + orderBy(OrganizationSortColumns, p) + " LIMIT ? OFFSET ?"
	items, err := r.query(ctx, q, append(append([]any{}, w.args...), p.Limit, p.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search matches term against name, description, org_type, city, state
// and country of non-deleted organizations.
func (r *OrganizationRepo) Search(ctx context.Context, term string, limit int) ([]model.Organization, error) {
	like := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	q := "SELECT " + orgColumns + ` FROM organizations WHERE is_deleted = 0 AND (
		LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(org_type) LIKE ? OR
		LOWER(city) LIKE ? OR LOWER(state) LIKE ? OR LOWER(country) LIKE ?)
		ORDER BY name ASC LIMIT ?`
	return r.query(ctx, q, like, like, like, like, like, like, limit)
}

func (r *OrganizationRepo) Update(ctx context.Context, o *model.Organization) error {
	res, err := r.db.ExecContext(ctx, `UPDATE organizations SET name = ?, description = ?, org_type = ?,
		website = ?, email = ?, phone = ?, address = ?, city = ?, state = ?, country = ?, pincode = ?,
		status = ?, org_metadata = ?, updated_at = ?, updated_by = ?
		WHERE id = ? AND is_deleted = 0`,
		o.Name, o.Description, o.OrgType, o.Website, o.Email, o.Phone, o.Address, o.City, o.State,
		o.Country, o.Pincode, o.Status, o.Metadata, o.UpdatedAt, o.UpdatedBy, o.ID)
	if err != nil {
		return err
	}
	return requireOne(res)
}

func (r *OrganizationRepo) SoftDelete(ctx context.Context, id uint64, at time.Time, actor string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE organizations SET is_deleted = 1, deleted_at = ?, deleted_by = ?, updated_at = ? WHERE id = ? AND is_deleted = 0",
		at.UTC(), actor, at.UTC(), id)
	if err != nil {
		return err
	}
	return requireOne(res)
}

func (r *OrganizationRepo) Restore(ctx context.Context, id uint64, at time.Time, actor string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE organizations SET is_deleted = 0, deleted_at = NULL, deleted_by = NULL, updated_at = ?, updated_by = ? WHERE id = ? AND is_deleted = 1",
		at.UTC(), actor, id)
	if err != nil {
		return err
	}
	return requireOne(res)
}

// HardDelete removes the organization and its team mappings in one
// transaction.
func (r *OrganizationRepo) HardDelete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM team_organization_mappings WHERE organization_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM organizations WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireOne(res)
}

func (r *OrganizationRepo) Count(ctx context.Context, includeDeleted bool) (int64, error) {
	q := "SELECT COUNT(*) FROM organizations"
	if !includeDeleted {
		q += " WHERE is_deleted = 0"
	}
	var n int64
	err := r.db.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

func (r *OrganizationRepo) query(ctx context.Context, q string, args ...any) ([]model.Organization, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrganization(s rowScanner) (model.Organization, error) {
	var o model.Organization
	var createdBy, updatedBy, deletedBy sql.NullString
	err := s.Scan(&o.ID, &o.Name, &o.Description, &o.OrgType, &o.Website, &o.Email, &o.Phone,
		&o.Address, &o.City, &o.State, &o.Country, &o.Pincode, &o.Status, &o.Metadata,
		&o.IsDeleted, &o.CreatedAt, &o.UpdatedAt, &createdBy, &updatedBy, &o.DeletedAt, &deletedBy)
	o.CreatedBy, o.UpdatedBy, o.DeletedBy = createdBy.String, updatedBy.String, deletedBy.String
	return o, err
}

// requireOne maps an UPDATE/DELETE that matched no row to ErrNotFound.
// The DSN sets clientFoundRows so matched-but-unchanged rows still count.
func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
