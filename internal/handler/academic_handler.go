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

// AcademicHandler handles session and performance endpoints.
type AcademicHandler struct {
	service *service.AcademicService
	gate    *service.AccessService
}

// NewAcademicHandler creates a new academic handler.
func NewAcademicHandler(svc *service.AcademicService, gate *service.AccessService) *AcademicHandler {
	return &AcademicHandler{service: svc, gate: gate}
}

// ListSessions godoc
// @Summary List academic sessions
// @Description List a foundation's academic sessions
// @Tags Academic
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /academic/sessions [get]
func (h *AcademicHandler) ListSessions(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSessionList)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), foundationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sessions, nil)
}

// CreateSession godoc
// @Summary Create academic session
// @Description Open a new academic session; the previous active one is closed
// @Tags Academic
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /academic/sessions [post]
func (h *AcademicHandler) CreateSession(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSessionCreate)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), foundationID, req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}

// CloseSession godoc
// @Summary Close academic session
// @Description Deactivate an academic session
// @Tags Academic
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic/sessions/{id}/close [post]
func (h *AcademicHandler) CloseSession(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpSessionCreate)
	if !ok {
		return
	}

	session, err := h.service.CloseSession(c.Request.Context(), c.Param("id"), actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, session, nil)
}

// ListPerformance godoc
// @Summary List performance records
// @Description List performance records with pagination and filtering
// @Tags Academic
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param beneficiary_id query string false "Beneficiary filter"
// @Param session_id query string false "Session filter"
// @Param term query string false "Term filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /academic/performance [get]
func (h *AcademicHandler) ListPerformance(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpPerformanceList)
	if !ok {
		return
	}

	var filter models.PerformanceFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SessionID = c.Query("session_id")
	filter.Term = c.Query("term")
	filter.FoundationID = actor.FoundationID

	// Beneficiaries and guardians only see their own records.
	if actor.Role == models.RoleBeneficiary || actor.Role == models.RoleGuardian {
		filter.BeneficiaryID = &actor.ID
	} else if bid := c.Query("beneficiary_id"); bid != "" {
		filter.BeneficiaryID = &bid
	}

	records, pagination, err := h.service.ListPerformance(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, pagination)
}

// RecordPerformance godoc
// @Summary Record performance
// @Description Record a beneficiary's term results
// @Tags Academic
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RecordPerformanceRequest true "Performance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /academic/performance [post]
func (h *AcademicHandler) RecordPerformance(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpPerformanceRecord)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	var req service.RecordPerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	record, err := h.service.RecordPerformance(c.Request.Context(), foundationID, req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}
