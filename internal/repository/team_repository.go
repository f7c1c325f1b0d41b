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

const teamColumns = `id, name, description, status, is_deleted, created_at, updated_at,
	created_by, updated_by, deleted_at, deleted_by`

// TeamRepo is the MySQL TeamStore. The mapping table has a unique team_id,
// so a team owns at most one mapping row whose is_active flag is toggled.
type TeamRepo struct{ db *sql.DB }

func NewTeamRepo(db *sql.DB) *TeamRepo { return &TeamRepo{db: db} }

func (r *TeamRepo) Create(ctx context.Context, t *model.Team) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO teams (name, description, status, is_deleted, created_at, created_by) VALUES (?,?,?,0,?,?)",
		t.Name, t.Description, t.Status, t.CreatedAt.UTC(), t.CreatedBy)
	if err != nil {
		return 0, fmt.Errorf("insert team: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID = uint64(id)
	return t.ID, nil
}

func (r *TeamRepo) Get(ctx context.Context, id uint64, includeDeleted bool) (model.Team, error) {
	q := "SELECT " + teamColumns + " FROM teams WHERE id = ?"
	if !includeDeleted {
		q += " AND is_deleted = 0"
	}
	t, err := scanTeam(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Team{}, ErrNotFound
	}
	return t, err
}

func (r *TeamRepo) NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM teams WHERE LOWER(name) = ? AND is_deleted = 0 AND id <> ?",
		strings.ToLower(strings.TrimSpace(name)), excludeID).Scan(&n)
	return n > 0, err
}

func (r *TeamRepo) List(ctx context.Context, f TeamFilter, p Page) ([]model.Team, int64, error) {
	w := teamWhere(f)
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM teams"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT " + teamColumns + " FROM teams" + w.sql() + orderBy(TeamSortColumns, p) + " LIMIT ? OFFSET ?"
	items, err := r.query(ctx, q, append(append([]any{}, w.args...), p.Limit, p.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *TeamRepo) Update(ctx context.Context, t *model.Team) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE teams SET name = ?, description = ?, status = ?, updated_at = ?, updated_by = ? WHERE id = ? AND is_deleted = 0",
		t.Name, t.Description, t.Status, t.UpdatedAt, t.UpdatedBy, t.ID)
	if err != nil {
		return err
	}
	return requireOne(res)
}

// SoftDelete flags the team and deactivates its mapping atomically.
func (r *TeamRepo) SoftDelete(ctx context.Context, id uint64, at time.Time, actor string) (err error) {
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
	res, err := tx.ExecContext(ctx,
		"UPDATE teams SET is_deleted = 1, deleted_at = ?, deleted_by = ?, updated_at = ? WHERE id = ? AND is_deleted = 0",
		at.UTC(), actor, at.UTC(), id)
	if err != nil {
		return err
	}
	if err = requireOne(res); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "UPDATE team_organization_mappings SET is_active = 0 WHERE team_id = ?", id)
	return err
}

func (r *TeamRepo) Restore(ctx context.Context, id uint64, at time.Time, actor string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE teams SET is_deleted = 0, deleted_at = NULL, deleted_by = NULL, updated_at = ?, updated_by = ? WHERE id = ? AND is_deleted = 1",
		at.UTC(), actor, id)
	if err != nil {
		return err
	}
	return requireOne(res)
}

func (r *TeamRepo) ActiveMapping(ctx context.Context, teamID uint64) (model.TeamOrganizationMapping, error) {
	m, err := scanMapping(r.db.QueryRowContext(ctx,
		"SELECT id, team_id, organization_id, created_at, created_by, is_active FROM team_organization_mappings WHERE team_id = ? AND is_active = 1",
		teamID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.TeamOrganizationMapping{}, ErrNotFound
	}
	return m, err
}

// Map locks the team's mapping row, then either keeps it, rejects the
// request, or activates it for orgID. The unique team_id turns a racing
// first insert into a duplicate-key error, reported as ErrConflict.
func (r *TeamRepo) Map(ctx context.Context, teamID, orgID uint64, actor string, at time.Time) (m model.TeamOrganizationMapping, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return m, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	cur, err := scanMapping(tx.QueryRowContext(ctx,
		"SELECT id, team_id, organization_id, created_at, created_by, is_active FROM team_organization_mappings WHERE team_id = ? FOR UPDATE",
		teamID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			"INSERT INTO team_organization_mappings (team_id, organization_id, created_at, created_by, is_active) VALUES (?,?,?,?,1)",
			teamID, orgID, at.UTC(), actor)
		if err != nil {
			if isDuplicate(err) {
				return m, ErrConflict
			}
			return m, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return m, err
		}
		return model.TeamOrganizationMapping{
			ID: uint64(id), TeamID: teamID, OrganizationID: orgID,
			CreatedAt: at.UTC(), CreatedBy: actor, IsActive: true,
		}, nil
	case err != nil:
		return m, err
	}

	if cur.IsActive {
		if cur.OrganizationID == orgID {
			return cur, nil
		}
		return m, ErrConflict
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE team_organization_mappings SET organization_id = ?, created_at = ?, created_by = ?, is_active = 1 WHERE id = ?",
		orgID, at.UTC(), actor, cur.ID); err != nil {
		return m, err
	}
	cur.OrganizationID, cur.CreatedAt, cur.CreatedBy, cur.IsActive = orgID, at.UTC(), actor, true
	return cur, nil
}

func (r *TeamRepo) Unmap(ctx context.Context, teamID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE team_organization_mappings SET is_active = 0 WHERE team_id = ? AND is_active = 1", teamID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *TeamRepo) TeamsByOrganization(ctx context.Context, orgID uint64) ([]model.Team, error) {
	q := `SELECT t.id, t.name, t.description, t.status, t.is_deleted, t.created_at, t.updated_at,
		t.created_by, t.updated_by, t.deleted_at, t.deleted_by
		FROM teams t JOIN team_organization_mappings m ON m.team_id = t.id
		WHERE m.organization_id = ? AND m.is_active = 1 AND t.is_deleted = 0
		ORDER BY t.name ASC`
	return r.query(ctx, q, orgID)
}

func (r *TeamRepo) query(ctx context.Context, q string, args ...any) ([]model.Team, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTeam(s rowScanner) (model.Team, error) {
	var t model.Team
	var createdBy, updatedBy, deletedBy sql.NullString
	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt,
		&createdBy, &updatedBy, &t.DeletedAt, &deletedBy)
	t.CreatedBy, t.UpdatedBy, t.DeletedBy = createdBy.String, updatedBy.String, deletedBy.String
	return t, err
}

func scanMapping(s rowScanner) (model.TeamOrganizationMapping, error) {
	var m model.TeamOrganizationMapping
	var createdBy sql.NullString
	err := s.Scan(&m.ID, &m.TeamID, &m.OrganizationID, &m.CreatedAt, &createdBy, &m.IsActive)
	m.CreatedBy = createdBy.String
	return m, err
}
