package model

import "time"

// Team statuses.
const (
	TeamStatusActive   = "active"
	TeamStatusInactive = "inactive"
)

// Team is a soft-deletable group that can belong to one organization.
type Team struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`

	IsDeleted bool       `json:"is_deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at"`
	DeletedBy string     `json:"deleted_by,omitempty"`
}

// TeamOrganizationMapping is the single mapping row a team owns
// (team_id is unique). Unmapping clears IsActive; remapping reuses the row.
type TeamOrganizationMapping struct {
	ID             uint64    `json:"id"`
	TeamID         uint64    `json:"team_id"`
	OrganizationID uint64    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by,omitempty"`
	IsActive       bool      `json:"is_active"`
}
