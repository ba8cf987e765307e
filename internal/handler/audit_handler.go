package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beaconaid/foundation-api/internal/models"
	"github.com/beaconaid/foundation-api/internal/service"
	"github.com/beaconaid/foundation-api/pkg/response"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service *service.AuditService
	gate    *service.AccessService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(svc *service.AuditService, gate *service.AccessService) *AuditHandler {
	return &AuditHandler{service: svc, gate: gate}
}

// List godoc
// @Summary List audit logs
// @Description List audit log entries, newest first
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action filter"
// @Param entity_type query string false "Entity type filter"
// @Param risk_level query string false "Risk level filter"
// @Param actor_id query string false "Actor filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpAuditList)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := models.AuditFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		RiskLevel:  c.Query("risk_level"),
		Page:       page,
		PageSize:   pageSize,
	}
	if actorID := c.Query("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if actor.Role == models.RoleSuperAdmin {
		if foundationID := c.Query("foundation_id"); foundationID != "" {
			filter.FoundationID = &foundationID
		}
	} else {
		filter.FoundationID = actor.FoundationID
	}

	logs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, logs, pagination)
}
