package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beaconaid/foundation-api/internal/models"
	"github.com/beaconaid/foundation-api/internal/service"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
	"github.com/beaconaid/foundation-api/pkg/response"
)

// SupportConfigHandler handles support configuration endpoints.
type SupportConfigHandler struct {
	service *service.SupportConfigService
	gate    *service.AccessService
}

// NewSupportConfigHandler creates a new support configuration handler.
func NewSupportConfigHandler(svc *service.SupportConfigService, gate *service.AccessService) *SupportConfigHandler {
	return &SupportConfigHandler{service: svc, gate: gate}
}

// resolveFoundation picks the foundation the operation works on: the actor's
// own, or the foundation_id query parameter for super_admins.
func resolveFoundation(c *gin.Context, actor *models.User) (string, bool) {
	if fid := c.Query("foundation_id"); fid != "" && actor.Role == models.RoleSuperAdmin {
		return fid, true
	}
	if actor.FoundationID != nil {
		return *actor.FoundationID, true
	}
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, "foundation_id is required"))
	return "", false
}

// List godoc
// @Summary List support configurations
// @Description List a foundation's support configurations
// @Tags SupportConfigs
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include inactive configurations"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /support-configs [get]
func (h *SupportConfigHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSupportList)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))

	configs, err := h.service.List(c.Request.Context(), foundationID, includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, configs, nil)
}

// Get godoc
// @Summary Get support configuration
// @Description Get one support configuration
// @Tags SupportConfigs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /support-configs/{id} [get]
func (h *SupportConfigHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSupportList)
	if !ok {
		return
	}

	cfg, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, cfg, nil)
}

// Create godoc
// @Summary Create support configuration
// @Description Create a support configuration for a foundation
// @Tags SupportConfigs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateSupportConfigRequest true "Configuration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /support-configs [post]
func (h *SupportConfigHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSupportCreate)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	var req service.CreateSupportConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	cfg, err := h.service.Create(c.Request.Context(), foundationID, req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, cfg)
}

// Update godoc
// @Summary Update support configuration
// @Description Apply a partial update to a support configuration
// @Tags SupportConfigs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Configuration ID"
// @Param payload body service.UpdateSupportConfigRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /support-configs/{id} [put]
func (h *SupportConfigHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSupportUpdate)
	if !ok {
		return
	}

	var req service.UpdateSupportConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	cfg, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, cfg, nil)
}

// Deactivate godoc
// @Summary Deactivate support configuration
// @Description Deactivate a support configuration (soft delete)
// @Tags SupportConfigs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Configuration ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /support-configs/{id} [delete]
func (h *SupportConfigHandler) Deactivate(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSupportDeactivate)
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), actor, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ReactivateAll godoc
// @Summary Reactivate support configurations
// @Description Reactivate every inactive configuration for a foundation
// @Tags SupportConfigs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /support-configs/reactivate [post]
func (h *SupportConfigHandler) ReactivateAll(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSupportReactivate)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	count, err := h.service.ReactivateAll(c.Request.Context(), foundationID, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"reactivated": count}, nil)
}

// SeedDefaults godoc
// @Summary Seed default configurations
// @Description Create the default support configurations for a foundation
// @Tags SupportConfigs
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /support-configs/seed [post]
func (h *SupportConfigHandler) SeedDefaults(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSupportSeed)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	configs, err := h.service.SeedDefaults(c.Request.Context(), foundationID, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, configs)
}

// ListForBeneficiary godoc
// @Summary Available support
// @Description List active support types evaluated against the current beneficiary
// @Tags SupportConfigs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /support-configs/available [get]
func (h *SupportConfigHandler) ListForBeneficiary(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, claims.FoundationID, service.OpSupportForUser)
	if !ok {
		return
	}
	if actor.FoundationID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "account is not assigned to a foundation"))
		return
	}

	evaluated, err := h.service.ListForBeneficiary(c.Request.Context(), *actor.FoundationID, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, evaluated, nil)
}
