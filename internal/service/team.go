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

// TeamInput creates a team. Status defaults to active.
type TeamInput struct {
	Name        string
	Description string
	Status      string
	CreatedBy   string
}

// TeamPatch updates the non-nil fields of a team.
type TeamPatch struct {
	Name        *string
	Description *string
	Status      *string
	UpdatedBy   string
}

// TeamView is a team with the organization it is currently mapped to.
type TeamView struct {
	model.Team
	OrganizationID   *uint64 `json:"organization_id"`
	OrganizationName string  `json:"organization_name,omitempty"`
}

// TeamList is one page of teams.
type TeamList struct {
	Teams   []model.Team `json:"teams"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// TeamService manages teams and their organization mapping.
type TeamService struct {
	teams repository.TeamStore
	orgs  repository.OrganizationStore
	log   *zap.Logger
	now   func() time.Time
}

func NewTeamService(teams repository.TeamStore, orgs repository.OrganizationStore, log *zap.Logger) *TeamService {
	return &TeamService{teams: teams, orgs: orgs, log: log, now: time.Now}
}

func (s *TeamService) Create(ctx context.Context, in TeamInput) (model.Team, error) {
	name, err := checkLabel("Team name", in.Name, 255)
	if err != nil {
		return model.Team{}, err
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.TeamStatusActive
	}
	if err := checkTeamStatus(status); err != nil {
		return model.Team{}, err
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return model.Team{}, err
	}
	t := model.Team{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		CreatedAt:   s.now().UTC(),
		CreatedBy:   in.CreatedBy,
	}
	if _, err := s.teams.Create(ctx, &t); err != nil {
		return model.Team{}, err
	}
	s.log.Info("team created", zap.Uint64("team_id", t.ID), zap.String("by", t.CreatedBy))
	return t, nil
}

// Get returns a team together with its active organization mapping.
func (s *TeamService) Get(ctx context.Context, id uint64, includeDeleted bool) (TeamView, error) {
	t, err := s.team(ctx, id, includeDeleted)
	if err != nil {
		return TeamView{}, err
	}
	v := TeamView{Team: t}
	m, err := s.teams.ActiveMapping(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return v, nil
	case err != nil:
		return TeamView{}, err
	}
	v.OrganizationID = &m.OrganizationID
	if o, err := s.orgs.Get(ctx, m.OrganizationID, true); err == nil {
		v.OrganizationName = o.Name
	} else if !errors.Is(err, repository.ErrNotFound) {
		return TeamView{}, err
	}
	return v, nil
}

func (s *TeamService) team(ctx context.Context, id uint64, includeDeleted bool) (model.Team, error) {
	t, err := s.teams.Get(ctx, id, includeDeleted)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Team{}, notFound("Team")
	}
	return t, err
}

func (s *TeamService) List(ctx context.Context, f repository.TeamFilter, q ListQuery) (TeamList, error) {
	if err := pageBounds(q.Skip, q.Limit, MaxListLimit); err != nil {
		return TeamList{}, err
	}
	items, total, err := s.teams.List(ctx, f, q.page())
	if err != nil {
		return TeamList{}, err
	}
	return TeamList{Teams: items, Total: total, Page: q.Skip/q.Limit + 1, PerPage: q.Limit}, nil
}

func (s *TeamService) Update(ctx context.Context, id uint64, p TeamPatch) (model.Team, error) {
	t, err := s.team(ctx, id, false)
	if err != nil {
		return model.Team{}, err
	}
	if p.Name != nil {
		name, err := checkLabel("Team name", *p.Name, 255)
		if err != nil {
			return model.Team{}, err
		}
		if !strings.EqualFold(name, t.Name) {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return model.Team{}, err
			}
		}
		t.Name = name
	}
	if v := trimPtr(p.Description); v != nil {
		t.Description = *v
	}
	if p.Status != nil {
		if err := checkTeamStatus(*p.Status); err != nil {
			return model.Team{}, err
		}
		t.Status = *p.Status
	}
	now := s.now().UTC()
	t.UpdatedAt, t.UpdatedBy = &now, p.UpdatedBy
	if err := s.teams.Update(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Team{}, notFound("Team")
		}
		return model.Team{}, err
	}
	s.log.Info("team updated", zap.Uint64("team_id", id), zap.String("by", p.UpdatedBy))
	return t, nil
}

// SoftDelete flags the team deleted and deactivates its mapping.
func (s *TeamService) SoftDelete(ctx context.Context, id uint64, actor string) error {
	if err := s.teams.SoftDelete(ctx, id, s.now(), actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Team")
		}
		return err
	}
	s.log.Info("team deleted", zap.Uint64("team_id", id), zap.String("by", actor))
	return nil
}

// Restore brings a deleted team back. Its old mapping stays inactive.
func (s *TeamService) Restore(ctx context.Context, id uint64, actor string) (model.Team, error) {
	t, err := s.team(ctx, id, true)
	if err != nil {
		return model.Team{}, err
	}
	if !t.IsDeleted {
		return model.Team{}, validationf("Team is not deleted")
	}
	if err := s.ensureNameFree(ctx, t.Name, id); err != nil {
		return model.Team{}, err
	}
	if err := s.teams.Restore(ctx, id, s.now(), actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Team{}, notFound("Team")
		}
		return model.Team{}, err
	}
	s.log.Info("team restored", zap.Uint64("team_id", id), zap.String("by", actor))
	return s.team(ctx, id, false)
}

// Map attaches a team to an organization. Mapping again to the same
// organization returns the existing mapping; mapping to a different one
// while still mapped is a conflict.
func (s *TeamService) Map(ctx context.Context, teamID, orgID uint64, actor string) (model.TeamOrganizationMapping, error) {
	if _, err := s.team(ctx, teamID, false); err != nil {
		return model.TeamOrganizationMapping{}, err
	}
	if _, err := s.orgs.Get(ctx, orgID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.TeamOrganizationMapping{}, notFound("Organization")
		}
		return model.TeamOrganizationMapping{}, err
	}
	m, err := s.teams.Map(ctx, teamID, orgID, actor, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.TeamOrganizationMapping{}, conflict(MsgAlreadyMapped)
		}
		return model.TeamOrganizationMapping{}, err
	}
	s.log.Info("team mapped", zap.Uint64("team_id", teamID), zap.Uint64("organization_id", orgID), zap.String("by", actor))
	return m, nil
}

// Unmap detaches a team from its organization. A team without an active
// mapping is left as is.
func (s *TeamService) Unmap(ctx context.Context, teamID uint64) error {
	if _, err := s.team(ctx, teamID, false); err != nil {
		return err
	}
	changed, err := s.teams.Unmap(ctx, teamID)
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("team unmapped", zap.Uint64("team_id", teamID))
	}
	return nil
}

// Mapping returns the team's active mapping.
func (s *TeamService) Mapping(ctx context.Context, teamID uint64) (model.TeamOrganizationMapping, error) {
	if _, err := s.team(ctx, teamID, false); err != nil {
		return model.TeamOrganizationMapping{}, err
	}
	m, err := s.teams.ActiveMapping(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.TeamOrganizationMapping{}, notFound("Team mapping")
	}
	return m, err
}

func (s *TeamService) ensureNameFree(ctx context.Context, name string, excludeID uint64) error {
	taken, err := s.teams.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return conflict("Team with name '" + name + "' already exists")
	}
	return nil
}

func checkTeamStatus(v string) error {
	return checkStatus("Status", v, model.TeamStatusActive, model.TeamStatusInactive)
}
