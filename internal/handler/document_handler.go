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

// DocumentHandler handles document metadata endpoints.
type DocumentHandler struct {
	service *service.DocumentService
	gate    *service.AccessService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(svc *service.DocumentService, gate *service.AccessService) *DocumentHandler {
	return &DocumentHandler{service: svc, gate: gate}
}

// List godoc
// @Summary List documents
// @Description List document records; beneficiaries and guardians only see their own
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param doc_type query string false "Document type"
// @Param status query string false "Review status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpDocumentList)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := models.DocumentFilter{
		DocType:  c.Query("doc_type"),
		Page:     page,
		PageSize: pageSize,
	}
	if status := c.Query("status"); status != "" {
		s := models.DocumentStatus(status)
		filter.Status = &s
	}

	switch actor.Role {
	case models.RoleSuperAdmin:
		if foundationID := c.Query("foundation_id"); foundationID != "" {
			filter.FoundationID = &foundationID
		}
	case models.RoleBeneficiary, models.RoleGuardian:
		filter.FoundationID = actor.FoundationID
		filter.OwnerID = &actor.ID
	default:
		filter.FoundationID = actor.FoundationID
		if ownerID := c.Query("owner_id"); ownerID != "" {
			filter.OwnerID = &ownerID
		}
	}

	documents, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, documents, pagination)
}

// Get godoc
// @Summary Get document
// @Description Get a document record
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpDocumentList)
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	if (actor.Role == models.RoleBeneficiary || actor.Role == models.RoleGuardian) && doc.OwnerID != actor.ID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}

// Register godoc
// @Summary Register document
// @Description Register an uploaded document's metadata for review
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RegisterDocumentRequest true "Document payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, claims.FoundationID, service.OpDocumentCreate)
	if !ok {
		return
	}

	var req service.RegisterDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	doc, err := h.service.Register(c.Request.Context(), actor, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, doc)
}

// Review godoc
// @Summary Review document
// @Description Approve or reject a pending document
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param payload body service.ReviewDocumentRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents/{id}/review [post]
func (h *DocumentHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpDocumentVerify)
	if !ok {
		return
	}

	var req service.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	doc, err := h.service.Review(c.Request.Context(), c.Param("id"), req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}
