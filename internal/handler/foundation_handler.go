package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconaid/foundation-api/internal/service"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
	"github.com/beaconaid/foundation-api/pkg/response"
)

// FoundationHandler handles tenant management endpoints.
type FoundationHandler struct {
	service *service.FoundationService
	gate    *service.AccessService
}

// NewFoundationHandler creates a new foundation handler.
func NewFoundationHandler(svc *service.FoundationService, gate *service.AccessService) *FoundationHandler {
	return &FoundationHandler{service: svc, gate: gate}
}

// List godoc
// @Summary List foundations
// @Description List all registered foundations
// @Tags Foundations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /foundations [get]
func (h *FoundationHandler) List(c *gin.Context) {
	if _, ok := authorize(c, h.gate, nil, service.OpFoundationList); !ok {
		return
	}

	foundations, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, foundations, nil)
}

// Get godoc
// @Summary Get foundation
// @Description Get foundation detail
// @Tags Foundations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Foundation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /foundations/{id} [get]
func (h *FoundationHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, ok := authorize(c, h.gate, &id, service.OpFoundationGet); !ok {
		return
	}

	foundation, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, foundation, nil)
}

// Create godoc
// @Summary Create foundation
// @Description Register a new foundation tenant
// @Tags Foundations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateFoundationRequest true "Foundation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /foundations [post]
func (h *FoundationHandler) Create(c *gin.Context) {
	actor, ok := authorize(c, h.gate, nil, service.OpFoundationCreate)
	if !ok {
		return
	}

	var req service.CreateFoundationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	foundation, err := h.service.Create(c.Request.Context(), req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, foundation)
}

// Update godoc
// @Summary Update foundation
// @Description Update foundation details
// @Tags Foundations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Foundation ID"
// @Param payload body service.UpdateFoundationRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /foundations/{id} [put]
func (h *FoundationHandler) Update(c *gin.Context) {
	id := c.Param("id")
	actor, ok := authorize(c, h.gate, &id, service.OpFoundationUpdate)
	if !ok {
		return
	}

	var req service.UpdateFoundationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	foundation, err := h.service.Update(c.Request.Context(), id, req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, foundation, nil)
}
