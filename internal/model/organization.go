package model

import "time"

// Organization statuses accepted on create and update.
const (
	OrgStatusActive    = "active"
	OrgStatusInactive  = "inactive"
	OrgStatusSuspended = "suspended"
)

// Organization is a managed organization (`organizations`), independent of
// the signup profile stored in UserOrganization. Rows are soft deleted:
// IsDeleted plus DeletedAt/DeletedBy, never removed outside HardDelete.
type Organization struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	OrgType     string  `json:"org_type,omitempty"`
	Website     string  `json:"website,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Address     string  `json:"address,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	Country     string  `json:"country,omitempty"`
	Pincode     string  `json:"pincode,omitempty"`
	Status      string  `json:"status"`
	Metadata    JSONMap `json:"org_metadata,omitempty"`

	IsDeleted bool       `json:"is_deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at"`
	DeletedBy string     `json:"deleted_by,omitempty"`
}
