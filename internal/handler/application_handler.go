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

// ApplicationHandler handles application workflow endpoints.
type ApplicationHandler struct {
	service *service.ApplicationService
	gate    *service.AccessService
}

// NewApplicationHandler creates a new application handler.
func NewApplicationHandler(svc *service.ApplicationService, gate *service.AccessService) *ApplicationHandler {
	return &ApplicationHandler{service: svc, gate: gate}
}

// List godoc
// @Summary List applications
// @Description List applications with pagination and filtering
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Param support_type query string false "Support type filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	scope := foundationScope(c, claims)
	actor, ok := authorize(c, h.gate, scope, service.OpApplicationList)
	if !ok {
		return
	}

	var filter models.ApplicationFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SupportType = c.Query("support_type")
	if status := c.Query("status"); status != "" {
		st := models.ApplicationStatus(status)
		filter.Status = &st
	}
	if actor.Role == models.RoleSuperAdmin {
		filter.FoundationID = scope
	} else {
		filter.FoundationID = actor.FoundationID
	}
	// Reviewers only see their assigned queue.
	if actor.Role == models.RoleReviewer {
		filter.ReviewerID = &actor.ID
	}

	apps, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, apps, pagination)
}

// Mine godoc
// @Summary My applications
// @Description List the current beneficiary's applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /applications/mine [get]
func (h *ApplicationHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, claims.FoundationID, service.OpApplicationSubmit)
	if !ok {
		return
	}

	filter := models.ApplicationFilter{ApplicantID: &actor.ID}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	apps, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, apps, pagination)
}

// Get godoc
// @Summary Get application
// @Description Get application detail
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpApplicationGet)
	if !ok {
		return
	}

	app, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Applicants see only their own records.
	if (actor.Role == models.RoleBeneficiary || actor.Role == models.RoleGuardian) && app.ApplicantID != actor.ID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// Submit godoc
// @Summary Submit application
// @Description File a new support application for the current beneficiary
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, claims.FoundationID, service.OpApplicationSubmit)
	if !ok {
		return
	}

	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	app, err := h.service.Submit(c.Request.Context(), actor, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, app)
}

// AssignReviewer godoc
// @Summary Assign reviewer
// @Description Assign a reviewer and move the application under review
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body handler.assignReviewerRequest true "Reviewer payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/reviewer [put]
func (h *ApplicationHandler) AssignReviewer(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpApplicationAssign)
	if !ok {
		return
	}

	var req assignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	app, err := h.service.AssignReviewer(c.Request.Context(), c.Param("id"), req.ReviewerID, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

type assignReviewerRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
}

// Decide godoc
// @Summary Decide application
// @Description Approve or reject an application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body service.DecideApplicationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/decision [put]
func (h *ApplicationHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpApplicationDecide)
	if !ok {
		return
	}

	var req service.DecideApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	app, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}
