package repository

import (
	"strings"
	"time"
)

// Page carries offset pagination and ordering for list queries.
type Page struct {
	Skip      int
	Limit     int
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// OrganizationFilter narrows organization lists. Empty fields are ignored.
// Name, City, State and Country match as case-insensitive substrings;
// OrgType, Status and CreatedBy match exactly.
type OrganizationFilter struct {
	Name           string
	OrgType        string
	Status         string
	City           string
	State          string
	Country        string
	CreatedBy      string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	IncludeDeleted bool
}

// TeamFilter narrows team lists.
type TeamFilter struct {
	Name           string
	Status         string
	CreatedBy      string
	IncludeDeleted bool
}

// OrganizationSortColumns lists the columns organizations can be ordered by.
var OrganizationSortColumns = map[string]bool{
	"id": true, "name": true, "org_type": true, "status": true, "city": true,
	"state": true, "country": true, "created_at": true, "updated_at": true,
}

// TeamSortColumns lists the columns teams can be ordered by.
var TeamSortColumns = map[string]bool{
	"id": true, "name": true, "status": true, "created_at": true, "updated_at": true,
}

// ResolveSort maps a requested sort onto the whitelist. Unknown columns fall
// back to created_at descending; any order other than "asc" is descending.
func ResolveSort(allowed map[string]bool, by, order string) (column string, desc bool) {
	by = strings.ToLower(strings.TrimSpace(by))
	if !allowed[by] {
		return "created_at", true
	}
	return by, !strings.EqualFold(strings.TrimSpace(order), "asc")
}

func orderBy(allowed map[string]bool, p Page) string {
	col, desc := ResolveSort(allowed, p.SortBy, p.SortOrder)
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	// id breaks ties so pages stay stable.
	return " ORDER BY " + col + " " + dir + ", id " + dir
}

// where accumulates AND-ed conditions and their placeholders.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) eq(col, v string) {
	if v = strings.TrimSpace(v); v != "" {
		w.add(col+" = ?", v)
	}
}

func (w *where) contains(col, v string) {
	if v = strings.TrimSpace(v); v != "" {
		w.add("LOWER("+col+") LIKE ?", "%"+escapeLike(strings.ToLower(v))+"%")
	}
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return " WHERE 1=1"
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func organizationWhere(f OrganizationFilter) *where {
	w := &where{}
	if !f.IncludeDeleted {
		w.add("is_deleted = 0")
	}
	w.contains("name", f.Name)
	w.contains("city", f.City)
	w.contains("state", f.State)
	w.contains("country", f.Country)
	w.eq("org_type", f.OrgType)
	w.eq("status", f.Status)
	w.eq("created_by", f.CreatedBy)
	if f.CreatedAfter != nil {
		w.add("created_at >= ?", f.CreatedAfter.UTC())
	}
	if f.CreatedBefore != nil {
		w.add("created_at <= ?", f.CreatedBefore.UTC())
	}
	return w
}

func teamWhere(f TeamFilter) *where {
	w := &where{}
	if !f.IncludeDeleted {
		w.add("is_deleted = 0")
	}
	w.contains("name", f.Name)
	w.eq("status", f.Status)
	w.eq("created_by", f.CreatedBy)
	return w
}
