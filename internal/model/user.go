package model

import "time"

// User is a row of the `users` table together with its profile
// sub-records, which the repository loads alongside every lookup.
//
// Secrets (password hash, reset token digest and the expiry timestamps
// tied to them) are never serialized.
type User struct {
	ID            uint64 `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	PasswordHash  string `json:"-"`
	Role          string `json:"role"`
	Username      string `json:"username,omitempty"`
	Designation   string `json:"designation,omitempty"`
	Gender        string `json:"gender,omitempty"`
	EmailID       string `json:"email_id"`
	PersonalEmail string `json:"personal_email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Status        string `json:"status"`

	UserType           StringList `json:"user_type"`
	ProductAccess      StringList `json:"product_access"`
	AdditionalContacts RawJSON    `json:"additional_contacts"`

	IsFresh          bool       `json:"is_fresh"`
	IsProfileUpdated bool       `json:"is_profile_updated"`
	IsExistingUser   bool       `json:"is_existing_user"`
	IsTestUser       bool       `json:"is_test_user"`
	IsDeleted        bool       `json:"is_deleted"`
	DeletedOn        *time.Time `json:"deleted_on"`
	PendingReqCount  int        `json:"pending_req_count"`
	LastLogin        *time.Time `json:"last_login"`
	TncURL           string     `json:"tnc_url,omitempty"`
	TncAccepted      bool       `json:"tnc_accepted"`
	IsParichay       bool       `json:"is_parichay"`

	// Legacy onboarding fields copied from the signup form.
	OrgType        string  `json:"org_type,omitempty"`
	OrgName        string  `json:"org_name,omitempty"`
	OrgDetails     JSONMap `json:"org_details,omitempty"`
	StageCompleted string  `json:"stage_completed,omitempty"`
	IsExternal     bool    `json:"is_external"`

	CreatedAt time.Time `json:"created_on"`
	UpdatedAt time.Time `json:"updated_on"`

	TempPasswordExpiresAt  *time.Time `json:"-"`
	PasswordResetToken     string     `json:"-"` // SHA-256 hex of the issued token
	PasswordResetExpiresAt *time.Time `json:"-"`

	Org                *UserOrganization   `json:"org"`
	SupervisorDetails  []SupervisorDetail  `json:"supervisor_details"`
	MouInfo            *MouInfo            `json:"mou_info"`
	ReferenceDocuments []ReferenceDocument `json:"reference_documents"`
	AssociatedManagers []AssociatedManager `json:"associated_manager"`
}

// DisplayName returns the username when set, otherwise "first last".
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserOrganization is the 1:1 organization profile captured at signup
// (`user_organizations`).
type UserOrganization struct {
	ID             uint64    `json:"-"`
	UserID         uint64    `json:"-"`
	OrgName        string    `json:"org_name"`
	OrgType        string    `json:"org_type"`
	OrgWebsite     string    `json:"org_website,omitempty"`
	MinistryName   string    `json:"ministry_name,omitempty"`
	DepartmentName string    `json:"department_name,omitempty"`
	AddressType    string    `json:"address_type,omitempty"`
	Address        string    `json:"address,omitempty"`
	Pincode        string    `json:"pincode,omitempty"`
	State          string    `json:"state,omitempty"`
	City           string    `json:"city,omitempty"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// SupervisorDetail lists a supervisor vouching for the user.
type SupervisorDetail struct {
	ID            uint64 `json:"-"`
	UserID        uint64 `json:"-"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	OfficialEmail string `json:"official_email"`
	Designation   string `json:"designation,omitempty"`
	Phone         string `json:"phone,omitempty"`
	IDProof       string `json:"id_proof,omitempty"`
}

// MouInfo tracks the memorandum of understanding state of a user.
type MouInfo struct {
	ID                  uint64     `json:"-"`
	UserID              uint64     `json:"-"`
	MouFormat           string     `json:"mou_format"`
	MouCustomFileUpload string     `json:"mou_custom_file_upload,omitempty"`
	MouCustomFilename   string     `json:"mou_custom_filename,omitempty"`
	MouStatus           string     `json:"mou_status"`
	Remarks             string     `json:"remarks"`
	MouRequestedBy      string     `json:"mou_requested_by"`
	RequestedOn         *time.Time `json:"requested_on"`
	UpdatedOn           *time.Time `json:"updated_on"`
	IsDeleted           bool       `json:"is_deleted"`
	DeletedOn           *time.Time `json:"deleted_on"`
}

// ReferenceDocument is an uploaded file attached to a user.
type ReferenceDocument struct {
	ID           uint64    `json:"-"`
	UserID       uint64    `json:"-"`
	FileName     string    `json:"file_name"`
	BlobFileName string    `json:"blob_file_name"`
	Role         string    `json:"role"`
	UploadedBy   string    `json:"uploaded_by"`
	UploadedOn   time.Time `json:"uploaded_on"`
}

// AssociatedManager links a user to an application manager.
type AssociatedManager struct {
	ID              uint64 `json:"-"`
	UserID          uint64 `json:"-"`
	ApplicationName string `json:"application_name"`
	ManagerEmail    string `json:"manager_email"`
}
