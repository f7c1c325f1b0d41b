package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/repository"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

// OrganizationHandler serves organization CRUD and the org→teams view.
type OrganizationHandler struct {
	Orgs *service.OrganizationService
	Log  *zap.Logger
}

func NewOrganizationHandler(orgs *service.OrganizationService, log *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{Orgs: orgs, Log: log}
}

type createOrganizationReq struct {
	Name        string         `json:"name" validate:"required,max=255"`
	Description string         `json:"description"`
	OrgType     string         `json:"org_type" validate:"max=100"`
	Website     string         `json:"website" validate:"max=255"`
	Email       string         `json:"email" validate:"omitempty,email"`
	Phone       string         `json:"phone" validate:"max=32"`
	Address     string         `json:"address"`
	City        string         `json:"city" validate:"max=100"`
	State       string         `json:"state" validate:"max=100"`
	Country     string         `json:"country" validate:"max=100"`
	Pincode     string         `json:"pincode" validate:"max=16"`
	Status      string         `json:"status"`
	Metadata    map[string]any `json:"org_metadata"`
	CreatedBy   string         `json:"created_by"`
}

type updateOrganizationReq struct {
	Name        *string        `json:"name" validate:"omitempty,max=255"`
	Description *string        `json:"description"`
	OrgType     *string        `json:"org_type" validate:"omitempty,max=100"`
	Website     *string        `json:"website" validate:"omitempty,max=255"`
	Email       *string        `json:"email" validate:"omitempty,email"`
	Phone       *string        `json:"phone" validate:"omitempty,max=32"`
	Address     *string        `json:"address"`
	City        *string        `json:"city" validate:"omitempty,max=100"`
	State       *string        `json:"state" validate:"omitempty,max=100"`
	Country     *string        `json:"country" validate:"omitempty,max=100"`
	Pincode     *string        `json:"pincode" validate:"omitempty,max=16"`
	Status      *string        `json:"status"`
	Metadata    map[string]any `json:"org_metadata"`
	UpdatedBy   string         `json:"updated_by"`
}

func (h *OrganizationHandler) Create(c echo.Context) error {
	var req createOrganizationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	o, err := h.Orgs.Create(c.Request().Context(), service.OrganizationInput{
		Name:        req.Name,
		Description: req.Description,
		OrgType:     req.OrgType,
		Website:     req.Website,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Pincode:     req.Pincode,
		Status:      req.Status,
		Metadata:    req.Metadata,
		CreatedBy:   actorOr(c, req.CreatedBy),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// listQuery reads skip, limit, sort_by and sort_order.
func listQuery(c echo.Context) (service.ListQuery, string) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return service.ListQuery{}, "skip must be an integer"
	}
	limit, ok := queryInt(c, "limit", service.DefaultListLimit)
	if !ok {
		return service.ListQuery{}, "limit must be an integer"
	}
	return service.ListQuery{
		Skip:      skip,
		Limit:     limit,
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}, ""
}

// List handles GET /v1/organizations with filters, sort and pagination.
func (h *OrganizationHandler) List(c echo.Context) error {
	q, msg := listQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	incl, ok := queryBool(c, "include_deleted")
	if !ok {
		return badRequest(c, "include_deleted must be a boolean")
	}
	after, ok := queryTime(c, "created_after")
	if !ok {
		return badRequest(c, "created_after must be a date or RFC 3339 timestamp")
	}
	before, ok := queryTime(c, "created_before")
	if !ok {
		return badRequest(c, "created_before must be a date or RFC 3339 timestamp")
	}
	f := repository.OrganizationFilter{
		Name:           c.QueryParam("name"),
		OrgType:        c.QueryParam("org_type"),
		Status:         c.QueryParam("status"),
		City:           c.QueryParam("city"),
		State:          c.QueryParam("state"),
		Country:        c.QueryParam("country"),
		CreatedBy:      c.QueryParam("created_by"),
		CreatedAfter:   after,
		CreatedBefore:  before,
		IncludeDeleted: incl,
	}
	res, err := h.Orgs.List(c.Request().Context(), f, q)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Search handles GET /v1/organizations/search?q=&limit=
func (h *OrganizationHandler) Search(c echo.Context) error {
	limit, ok := queryInt(c, "limit", service.DefaultSearchLimit)
	if !ok {
		return badRequest(c, "limit must be an integer")
	}
	items, err := h.Orgs.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *OrganizationHandler) Count(c echo.Context) error {
	incl, ok := queryBool(c, "include_deleted")
	if !ok {
		return badRequest(c, "include_deleted must be a boolean")
	}
	n, err := h.Orgs.Count(c.Request().Context(), incl)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n, "include_deleted": incl})
}

func (h *OrganizationHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid organization id")
	}
	incl, ok := queryBool(c, "include_deleted")
	if !ok {
		return badRequest(c, "include_deleted must be a boolean")
	}
	o, err := h.Orgs.Get(c.Request().Context(), id, incl)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrganizationHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid organization id")
	}
	var req updateOrganizationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	o, err := h.Orgs.Update(c.Request().Context(), id, service.OrganizationPatch{
		Name:        req.Name,
		Description: req.Description,
		OrgType:     req.OrgType,
		Website:     req.Website,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Pincode:     req.Pincode,
		Status:      req.Status,
		Metadata:    req.Metadata,
		UpdatedBy:   actorOr(c, req.UpdatedBy),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Delete soft deletes; the actor comes from ?deleted_by= or the token.
func (h *OrganizationHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid organization id")
	}
	if err := h.Orgs.SoftDelete(c.Request().Context(), id, actorOr(c, c.QueryParam("deleted_by"))); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Organization deleted successfully"})
}

func (h *OrganizationHandler) Restore(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid organization id")
	}
	o, err := h.Orgs.Restore(c.Request().Context(), id, actorOr(c, c.QueryParam("restored_by")))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrganizationHandler) HardDelete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid organization id")
	}
	if err := h.Orgs.HardDelete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Organization permanently deleted"})
}

func (h *OrganizationHandler) Teams(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid organization id")
	}
	res, err := h.Orgs.Teams(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
