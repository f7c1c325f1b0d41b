package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/repository"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

// TeamHandler serves team CRUD and the team↔organization mapping.
type TeamHandler struct {
	Teams *service.TeamService
	Log   *zap.Logger
}

func NewTeamHandler(teams *service.TeamService, log *zap.Logger) *TeamHandler {
	return &TeamHandler{Teams: teams, Log: log}
}

type createTeamReq struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedBy   string `json:"created_by"`
}

type updateTeamReq struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	UpdatedBy   string  `json:"updated_by"`
}

type mapTeamReq struct {
	TeamID         uint64 `json:"team_id" validate:"required"`
	OrganizationID uint64 `json:"organization_id" validate:"required"`
	CreatedBy      string `json:"created_by"`
}

func (h *TeamHandler) Create(c echo.Context) error {
	var req createTeamReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	t, err := h.Teams.Create(c.Request().Context(), service.TeamInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		CreatedBy:   actorOr(c, req.CreatedBy),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TeamHandler) List(c echo.Context) error {
	q, msg := listQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	incl, ok := queryBool(c, "include_deleted")
	if !ok {
		return badRequest(c, "include_deleted must be a boolean")
	}
	res, err := h.Teams.List(c.Request().Context(), repository.TeamFilter{
		Name:           c.QueryParam("name"),
		Status:         c.QueryParam("status"),
		CreatedBy:      c.QueryParam("created_by"),
		IncludeDeleted: incl,
	}, q)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *TeamHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	incl, ok := queryBool(c, "include_deleted")
	if !ok {
		return badRequest(c, "include_deleted must be a boolean")
	}
	v, err := h.Teams.Get(c.Request().Context(), id, incl)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *TeamHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	var req updateTeamReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	t, err := h.Teams.Update(c.Request().Context(), id, service.TeamPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		UpdatedBy:   actorOr(c, req.UpdatedBy),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TeamHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	if err := h.Teams.SoftDelete(c.Request().Context(), id, actorOr(c, c.QueryParam("deleted_by"))); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Team deleted successfully"})
}

func (h *TeamHandler) Restore(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	t, err := h.Teams.Restore(c.Request().Context(), id, actorOr(c, c.QueryParam("restored_by")))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Map handles POST /v1/teams/map.
func (h *TeamHandler) Map(c echo.Context) error {
	var req mapTeamReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Log, err)
	}
	m, err := h.Teams.Map(c.Request().Context(), req.TeamID, req.OrganizationID, actorOr(c, req.CreatedBy))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *TeamHandler) Unmap(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	if err := h.Teams.Unmap(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Team unmapped successfully"})
}

// Mapping returns the team's active organization mapping.
func (h *TeamHandler) Mapping(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid team id")
	}
	m, err := h.Teams.Mapping(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}
