package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/adopter-login-api/internal/model"
)

// loadProfiles attaches profile sub-records to users with one query per
// table, however many users are passed.
func (r *UserRepo) loadProfiles(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(users))
	ids := make([]any, 0, len(users))
	for i := range users {
		idx[users[i].ID] = i
		ids = append(ids, users[i].ID)
		users[i].SupervisorDetails = []model.SupervisorDetail{}
		users[i].ReferenceDocuments = []model.ReferenceDocument{}
		users[i].AssociatedManagers = []model.AssociatedManager{}
	}
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"

	if err := r.eachRow(ctx, `SELECT id, user_id, org_name, org_type, org_website, ministry_name,
		department_name, address_type, address, pincode, state, city, created_at, updated_at
		FROM user_organizations WHERE user_id IN `+in, ids, func(rows *sql.Rows) error {
		var o model.UserOrganization
		var updated sql.NullTime
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrgName, &o.OrgType, &o.OrgWebsite, &o.MinistryName,
			&o.DepartmentName, &o.AddressType, &o.Address, &o.Pincode, &o.State, &o.City,
			&o.CreatedAt, &updated); err != nil {
			return err
		}
		o.UpdatedAt = updated.Time
		users[idx[o.UserID]].Org = &o
		return nil
	}); err != nil {
		return err
	}

	if err := r.eachRow(ctx, `SELECT id, user_id, first_name, last_name, official_email,
		designation, phone, id_proof FROM supervisor_details WHERE user_id IN `+in+` ORDER BY id`,
		ids, func(rows *sql.Rows) error {
			var s model.SupervisorDetail
			if err := rows.Scan(&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.OfficialEmail,
				&s.Designation, &s.Phone, &s.IDProof); err != nil {
				return err
			}
			u := &users[idx[s.UserID]]
			u.SupervisorDetails = append(u.SupervisorDetails, s)
			return nil
		}); err != nil {
		return err
	}

	if err := r.eachRow(ctx, `SELECT id, user_id, mou_format, mou_custom_file_upload, mou_custom_filename,
		mou_status, remarks, mou_requested_by, requested_on, updated_on, is_deleted, deleted_on
		FROM mou_infos WHERE user_id IN `+in, ids, func(rows *sql.Rows) error {
		var m model.MouInfo
		if err := rows.Scan(&m.ID, &m.UserID, &m.MouFormat, &m.MouCustomFileUpload, &m.MouCustomFilename,
			&m.MouStatus, &m.Remarks, &m.MouRequestedBy, &m.RequestedOn, &m.UpdatedOn,
			&m.IsDeleted, &m.DeletedOn); err != nil {
			return err
		}
		users[idx[m.UserID]].MouInfo = &m
		return nil
	}); err != nil {
		return err
	}

	if err := r.eachRow(ctx, `SELECT id, user_id, file_name, blob_file_name, role, uploaded_by, uploaded_on
		FROM reference_documents WHERE user_id IN `+in+` ORDER BY id`, ids, func(rows *sql.Rows) error {
		var d model.ReferenceDocument
		if err := rows.Scan(&d.ID, &d.UserID, &d.FileName, &d.BlobFileName, &d.Role,
			&d.UploadedBy, &d.UploadedOn); err != nil {
			return err
		}
		u := &users[idx[d.UserID]]
		u.ReferenceDocuments = append(u.ReferenceDocuments, d)
		return nil
	}); err != nil {
		return err
	}

	return r.eachRow(ctx, `SELECT id, user_id, application_name, manager_email
		FROM associated_managers WHERE user_id IN `+in+` ORDER BY id`, ids, func(rows *sql.Rows) error {
		var m model.AssociatedManager
		if err := rows.Scan(&m.ID, &m.UserID, &m.ApplicationName, &m.ManagerEmail); err != nil {
			return err
		}
		u := &users[idx[m.UserID]]
		u.AssociatedManagers = append(u.AssociatedManagers, m)
		return nil
	})
}

func (r *UserRepo) eachRow(ctx context.Context, q string, args []any, fn func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
