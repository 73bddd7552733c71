package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
)

type AuditHandler struct {
	repo ports.AuditRepository
}

func NewAuditHandler(repo ports.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

type listAuditRequest struct {
	Event string `query:"event"`
	Actor string `query:"actor"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

type listAuditResponse struct {
	Entries []*domain.AuditEntry `json:"entries"`
}

// List returns the most recent audit entries, newest first.
//
// @Summary      List audit entries
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        event  query     string  false  "Event filter (e.g. login.failed)"
// @Param        actor  query     string  false  "Actor filter"
// @Param        limit  query     int     false  "Max entries (1-200, default 50)"
// @Success      200    {object}  listAuditResponse
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      422    {object}  map[string]string
// @Router       /v1/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	var req listAuditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	entries, err := h.repo.List(c.Request().Context(), ports.AuditFilter{
		Event: domain.AuditEvent(req.Event),
		Actor: req.Actor,
		Limit: req.Limit,
	})
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	return c.JSON(http.StatusOK, listAuditResponse{Entries: entries})
}
