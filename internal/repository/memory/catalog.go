package memory

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
)

type orgStore struct{ s *Store }

func (o orgStore) Create(_ context.Context, org *model.Organization) (uint64, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrg++
	org.ID = s.nextOrg
	org.IsDeleted = false
	s.orgs[org.ID] = *org
	return org.ID, nil
}

func (o orgStore) Get(_ context.Context, id uint64, includeDeleted bool) (model.Organization, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok || (org.IsDeleted && !includeDeleted) {
		return model.Organization{}, repository.ErrNotFound
	}
	return org, nil
}

func (o orgStore) NameTaken(_ context.Context, name string, excludeID uint64) (bool, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, org := range s.orgs {
		if id != excludeID && !org.IsDeleted && strings.EqualFold(org.Name, strings.TrimSpace(name)) {
			return true, nil
		}
	}
	return false, nil
}

func (o orgStore) List(_ context.Context, f repository.OrganizationFilter, p repository.Page) ([]model.Organization, int64, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Organization
	for _, org := range s.orgs {
		if matchOrganization(org, f) {
			all = append(all, org)
		}
	}
	sortBy(all, repository.OrganizationSortColumns, p, orgKey, func(m model.Organization) uint64 { return m.ID })
	return page(all, p.Skip, p.Limit), int64(len(all)), nil
}

func matchOrganization(org model.Organization, f repository.OrganizationFilter) bool {
	switch {
	case org.IsDeleted && !f.IncludeDeleted:
		return false
	case !lowerContains(org.Name, f.Name), !lowerContains(org.City, f.City),
		!lowerContains(org.State, f.State), !lowerContains(org.Country, f.Country):
		return false
	case !eqOrEmpty(org.OrgType, f.OrgType), !eqOrEmpty(org.Status, f.Status),
		!eqOrEmpty(org.CreatedBy, f.CreatedBy):
		return false
	case f.CreatedAfter != nil && org.CreatedAt.Before(*f.CreatedAfter):
		return false
	case f.CreatedBefore != nil && org.CreatedAt.After(*f.CreatedBefore):
		return false
	}
	return true
}

func orgKey(o model.Organization, col string) string {
	switch col {
	case "id":
		return idKey(o.ID)
	case "name":
		return o.Name
	case "org_type":
		return o.OrgType
	case "status":
		return o.Status
	case "city":
		return o.City
	case "state":
		return o.State
	case "country":
		return o.Country
	case "updated_at":
		if o.UpdatedAt == nil {
			return ""
		}
		return timeKey(*o.UpdatedAt)
	}
	return timeKey(o.CreatedAt)
}

func (o orgStore) Search(_ context.Context, term string, limit int) ([]model.Organization, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Organization{}
	for _, org := range s.orgs {
		if org.IsDeleted {
			continue
		}
		for _, field := range []string{org.Name, org.Description, org.OrgType, org.City, org.State, org.Country} {
			if lowerContains(field, term) {
				out = append(out, org)
				break
			}
		}
	}
	sortBy(out, repository.OrganizationSortColumns, repository.Page{SortBy: "name", SortOrder: "asc"},
		orgKey, func(m model.Organization) uint64 { return m.ID })
	return page(out, 0, limit), nil
}

func (o orgStore) Update(_ context.Context, org *model.Organization) error {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orgs[org.ID]
	if !ok || cur.IsDeleted {
		return repository.ErrNotFound
	}
	next := *org
	next.IsDeleted, next.CreatedAt, next.CreatedBy = cur.IsDeleted, cur.CreatedAt, cur.CreatedBy
	next.DeletedAt, next.DeletedBy = cur.DeletedAt, cur.DeletedBy
	s.orgs[org.ID] = next
	return nil
}

func (o orgStore) SoftDelete(_ context.Context, id uint64, at time.Time, actor string) error {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok || org.IsDeleted {
		return repository.ErrNotFound
	}
	t := at.UTC()
	org.IsDeleted, org.DeletedAt, org.DeletedBy, org.UpdatedAt = true, &t, actor, &t
	s.orgs[id] = org
	return nil
}

func (o orgStore) Restore(_ context.Context, id uint64, at time.Time, actor string) error {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok || !org.IsDeleted {
		return repository.ErrNotFound
	}
	t := at.UTC()
	org.IsDeleted, org.DeletedAt, org.DeletedBy = false, nil, ""
	org.UpdatedAt, org.UpdatedBy = &t, actor
	s.orgs[id] = org
	return nil
}

func (o orgStore) HardDelete(_ context.Context, id uint64) error {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.orgs, id)
	for teamID, m := range s.mappings {
		if m.OrganizationID == id {
			delete(s.mappings, teamID)
		}
	}
	return nil
}

func (o orgStore) Count(_ context.Context, includeDeleted bool) (int64, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, org := range s.orgs {
		if includeDeleted || !org.IsDeleted {
			n++
		}
	}
	return n, nil
}

type teamStore struct{ s *Store }

func (t teamStore) Create(_ context.Context, team *model.Team) (uint64, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTeam++
	team.ID = s.nextTeam
	team.IsDeleted = false
	s.teams[team.ID] = *team
	return team.ID, nil
}

func (t teamStore) Get(_ context.Context, id uint64, includeDeleted bool) (model.Team, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[id]
	if !ok || (team.IsDeleted && !includeDeleted) {
		return model.Team{}, repository.ErrNotFound
	}
	return team, nil
}

func (t teamStore) NameTaken(_ context.Context, name string, excludeID uint64) (bool, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, team := range s.teams {
		if id != excludeID && !team.IsDeleted && strings.EqualFold(team.Name, strings.TrimSpace(name)) {
			return true, nil
		}
	}
	return false, nil
}

func (t teamStore) List(_ context.Context, f repository.TeamFilter, p repository.Page) ([]model.Team, int64, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Team
	for _, team := range s.teams {
		if team.IsDeleted && !f.IncludeDeleted {
			continue
		}
		if !lowerContains(team.Name, f.Name) || !eqOrEmpty(team.Status, f.Status) || !eqOrEmpty(team.CreatedBy, f.CreatedBy) {
			continue
		}
		all = append(all, team)
	}
	sortBy(all, repository.TeamSortColumns, p, teamKey, func(m model.Team) uint64 { return m.ID })
	return page(all, p.Skip, p.Limit), int64(len(all)), nil
}

func teamKey(t model.Team, col string) string {
	switch col {
	case "id":
		return idKey(t.ID)
	case "name":
		return t.Name
	case "status":
		return t.Status
	case "updated_at":
		if t.UpdatedAt == nil {
			return ""
		}
		return timeKey(*t.UpdatedAt)
	}
	return timeKey(t.CreatedAt)
}

func (t teamStore) Update(_ context.Context, team *model.Team) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.teams[team.ID]
	if !ok || cur.IsDeleted {
		return repository.ErrNotFound
	}
	next := *team
	next.IsDeleted, next.CreatedAt, next.CreatedBy = cur.IsDeleted, cur.CreatedAt, cur.CreatedBy
	next.DeletedAt, next.DeletedBy = cur.DeletedAt, cur.DeletedBy
	s.teams[team.ID] = next
	return nil
}

func (t teamStore) SoftDelete(_ context.Context, id uint64, at time.Time, actor string) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[id]
	if !ok || team.IsDeleted {
		return repository.ErrNotFound
	}
	ts := at.UTC()
	team.IsDeleted, team.DeletedAt, team.DeletedBy, team.UpdatedAt = true, &ts, actor, &ts
	s.teams[id] = team
	if m, ok := s.mappings[id]; ok {
		m.IsActive = false
		s.mappings[id] = m
	}
	return nil
}

func (t teamStore) Restore(_ context.Context, id uint64, at time.Time, actor string) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[id]
	if !ok || !team.IsDeleted {
		return repository.ErrNotFound
	}
	ts := at.UTC()
	team.IsDeleted, team.DeletedAt, team.DeletedBy = false, nil, ""
	team.UpdatedAt, team.UpdatedBy = &ts, actor
	s.teams[id] = team
	return nil
}

func (t teamStore) ActiveMapping(_ context.Context, teamID uint64) (model.TeamOrganizationMapping, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[teamID]
	if !ok || !m.IsActive {
		return model.TeamOrganizationMapping{}, repository.ErrNotFound
	}
	return m, nil
}

func (t teamStore) Map(_ context.Context, teamID, orgID uint64, actor string, at time.Time) (model.TeamOrganizationMapping, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[teamID]
	if ok && m.IsActive {
		if m.OrganizationID == orgID {
			return m, nil
		}
		return model.TeamOrganizationMapping{}, repository.ErrConflict
	}
	if !ok {
		s.nextMapping++
		m = model.TeamOrganizationMapping{ID: s.nextMapping, TeamID: teamID}
	}
	m.OrganizationID, m.CreatedAt, m.CreatedBy, m.IsActive = orgID, at.UTC(), actor, true
	s.mappings[teamID] = m
	return m, nil
}

func (t teamStore) Unmap(_ context.Context, teamID uint64) (bool, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[teamID]
	if !ok || !m.IsActive {
		return false, nil
	}
	m.IsActive = false
	s.mappings[teamID] = m
	return true, nil
}

func (t teamStore) TeamsByOrganization(_ context.Context, orgID uint64) ([]model.Team, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Team{}
	for teamID, m := range s.mappings {
		if m.OrganizationID != orgID || !m.IsActive {
			continue
		}
		if team, ok := s.teams[teamID]; ok && !team.IsDeleted {
			out = append(out, team)
		}
	}
	sortBy(out, repository.TeamSortColumns, repository.Page{SortBy: "name", SortOrder: "asc"},
		teamKey, func(m model.Team) uint64 { return m.ID })
	return out, nil
}
