package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
)

// List bounds shared by organizations and teams.
const (
	DefaultListLimit   = 100
	MaxListLimit       = 1000
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// OrganizationInput creates an organization. Status defaults to active.
type OrganizationInput struct {
	Name        string
	Description string
	OrgType     string
	Website     string
	Email       string
	Phone       string
	Address     string
	City        string
	State       string
	Country     string
	Pincode     string
	Status      string
	Metadata    map[string]any
	CreatedBy   string
}

// OrganizationPatch updates the non-nil fields of an organization.
type OrganizationPatch struct {
	Name        *string
	Description *string
	OrgType     *string
	Website     *string
	Email       *string
	Phone       *string
	Address     *string
	City        *string
	State       *string
	Country     *string
	Pincode     *string
	Status      *string
	Metadata    map[string]any
	UpdatedBy   string
}

// ListQuery is the pagination and ordering part of a list request.
type ListQuery struct {
	Skip      int
	Limit     int
	SortBy    string
	SortOrder string
}

func (q ListQuery) page() repository.Page {
	return repository.Page{Skip: q.Skip, Limit: q.Limit, SortBy: q.SortBy, SortOrder: q.SortOrder}
}

// OrganizationList is one page of organizations.
type OrganizationList struct {
	Organizations []model.Organization `json:"organizations"`
	Total         int64                `json:"total"`
	Page          int                  `json:"page"`
	PerPage       int                  `json:"per_page"`
}

// OrganizationTeams lists the teams mapped to an organization.
type OrganizationTeams struct {
	OrganizationID   uint64       `json:"organization_id"`
	OrganizationName string       `json:"organization_name"`
	Teams            []model.Team `json:"teams"`
	TotalTeams       int          `json:"total_teams"`
}

// OrganizationService manages organizations.
type OrganizationService struct {
	orgs  repository.OrganizationStore
	teams repository.TeamStore
	log   *zap.Logger
	now   func() time.Time
}

func NewOrganizationService(orgs repository.OrganizationStore, teams repository.TeamStore, log *zap.Logger) *OrganizationService {
	return &OrganizationService{orgs: orgs, teams: teams, log: log, now: time.Now}
}

// Create validates and stores a new organization. Names are unique among
// non-deleted organizations.
func (s *OrganizationService) Create(ctx context.Context, in OrganizationInput) (model.Organization, error) {
	name, err := checkLabel("Organization name", in.Name, 255)
	if err != nil {
		return model.Organization{}, err
	}
	orgType := strings.TrimSpace(in.OrgType)
	if orgType != "" {
		if orgType, err = checkLabel("Organization type", orgType, 100); err != nil {
			return model.Organization{}, err
		}
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.OrgStatusActive
	}
	if err := checkOrgStatus(status); err != nil {
		return model.Organization{}, err
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return model.Organization{}, err
	}

	o := model.Organization{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OrgType:     orgType,
		Website:     strings.TrimSpace(in.Website),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		Country:     strings.TrimSpace(in.Country),
		Pincode:     strings.TrimSpace(in.Pincode),
		Status:      status,
		Metadata:    in.Metadata,
		CreatedAt:   s.now().UTC(),
		CreatedBy:   in.CreatedBy,
	}
	if _, err := s.orgs.Create(ctx, &o); err != nil {
		return model.Organization{}, err
	}
	s.log.Info("organization created", zap.Uint64("organization_id", o.ID), zap.String("by", o.CreatedBy))
	return o, nil
}

// Get returns an organization; deleted ones only when includeDeleted.
func (s *OrganizationService) Get(ctx context.Context, id uint64, includeDeleted bool) (model.Organization, error) {
	o, err := s.orgs.Get(ctx, id, includeDeleted)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Organization{}, notFound("Organization")
	}
	return o, err
}

// List filters, sorts and paginates organizations.
func (s *OrganizationService) List(ctx context.Context, f repository.OrganizationFilter, q ListQuery) (OrganizationList, error) {
	if err := pageBounds(q.Skip, q.Limit, MaxListLimit); err != nil {
		return OrganizationList{}, err
	}
	items, total, err := s.orgs.List(ctx, f, q.page())
	if err != nil {
		return OrganizationList{}, err
	}
	return OrganizationList{Organizations: items, Total: total, Page: q.Skip/q.Limit + 1, PerPage: q.Limit}, nil
}

// Search matches term across the descriptive fields of live organizations.
func (s *OrganizationService) Search(ctx context.Context, term string, limit int) ([]model.Organization, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, validationf("search term is required")
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, validationf("limit must be between 1 and %d", MaxSearchLimit)
	}
	return s.orgs.Search(ctx, term, limit)
}

// Update applies a partial patch. A changed name is re-checked for
// uniqueness.
func (s *OrganizationService) Update(ctx context.Context, id uint64, p OrganizationPatch) (model.Organization, error) {
	o, err := s.Get(ctx, id, false)
	if err != nil {
		return model.Organization{}, err
	}
	if p.Name != nil {
		name, err := checkLabel("Organization name", *p.Name, 255)
		if err != nil {
			return model.Organization{}, err
		}
		if !strings.EqualFold(name, o.Name) {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return model.Organization{}, err
			}
		}
		o.Name = name
	}
	if p.OrgType != nil {
		t, err := checkLabel("Organization type", *p.OrgType, 100)
		if err != nil {
			return model.Organization{}, err
		}
		o.OrgType = t
	}
	if p.Status != nil {
		if err := checkOrgStatus(*p.Status); err != nil {
			return model.Organization{}, err
		}
		o.Status = *p.Status
	}
	for dst, src := range map[*string]*string{
		&o.Description: p.Description, &o.Website: p.Website, &o.Email: p.Email,
		&o.Phone: p.Phone, &o.Address: p.Address, &o.City: p.City,
		&o.State: p.State, &o.Country: p.Country, &o.Pincode: p.Pincode,
	} {
		if v := trimPtr(src); v != nil {
			*dst = *v
		}
	}
	if p.Metadata != nil {
		o.Metadata = p.Metadata
	}
	now := s.now().UTC()
	o.UpdatedAt, o.UpdatedBy = &now, p.UpdatedBy
	if err := s.orgs.Update(ctx, &o); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Organization{}, notFound("Organization")
		}
		return model.Organization{}, err
	}
	s.log.Info("organization updated", zap.Uint64("organization_id", id), zap.String("by", p.UpdatedBy))
	return o, nil
}

// SoftDelete flags a live organization as deleted.
func (s *OrganizationService) SoftDelete(ctx context.Context, id uint64, actor string) error {
	if err := s.orgs.SoftDelete(ctx, id, s.now(), actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Organization")
		}
		return err
	}
	s.log.Info("organization deleted", zap.Uint64("organization_id", id), zap.String("by", actor))
	return nil
}

// Restore brings a deleted organization back. Restoring a live one is a
// validation error; a deleted name that has since been reused is a
// conflict.
func (s *OrganizationService) Restore(ctx context.Context, id uint64, actor string) (model.Organization, error) {
	o, err := s.Get(ctx, id, true)
	if err != nil {
		return model.Organization{}, err
	}
	if !o.IsDeleted {
		return model.Organization{}, validationf("Organization is not deleted")
	}
	if err := s.ensureNameFree(ctx, o.Name, id); err != nil {
		return model.Organization{}, err
	}
	if err := s.orgs.Restore(ctx, id, s.now(), actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Organization{}, notFound("Organization")
		}
		return model.Organization{}, err
	}
	s.log.Info("organization restored", zap.Uint64("organization_id", id), zap.String("by", actor))
	return s.Get(ctx, id, false)
}

// HardDelete removes an organization and its team mappings for good.
func (s *OrganizationService) HardDelete(ctx context.Context, id uint64) error {
	if err := s.orgs.HardDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Organization")
		}
		return err
	}
	s.log.Warn("organization hard deleted", zap.Uint64("organization_id", id))
	return nil
}

func (s *OrganizationService) Count(ctx context.Context, includeDeleted bool) (int64, error) {
	return s.orgs.Count(ctx, includeDeleted)
}

// Teams lists the live teams mapped to a live organization.
func (s *OrganizationService) Teams(ctx context.Context, id uint64) (OrganizationTeams, error) {
	o, err := s.Get(ctx, id, false)
	if err != nil {
		return OrganizationTeams{}, err
	}
	teams, err := s.teams.TeamsByOrganization(ctx, id)
	if err != nil {
		return OrganizationTeams{}, err
	}
	return OrganizationTeams{OrganizationID: o.ID, OrganizationName: o.Name, Teams: teams, TotalTeams: len(teams)}, nil
}

func (s *OrganizationService) ensureNameFree(ctx context.Context, name string, excludeID uint64) error {
	taken, err := s.orgs.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return conflict("Organization with name '" + name + "' already exists")
	}
	return nil
}

func checkOrgStatus(v string) error {
	return checkStatus("Status", v, model.OrgStatusActive, model.OrgStatusInactive, model.OrgStatusSuspended)
}
