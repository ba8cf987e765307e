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

// ProgramHandler handles program and enrollment endpoints.
type ProgramHandler struct {
	service *service.ProgramService
	gate    *service.AccessService
}

// NewProgramHandler creates a new program handler.
func NewProgramHandler(svc *service.ProgramService, gate *service.AccessService) *ProgramHandler {
	return &ProgramHandler{service: svc, gate: gate}
}

// List godoc
// @Summary List programs
// @Description List a foundation's programs
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param active_only query bool false "Only active programs"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpProgramList)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	programs, err := h.service.List(c.Request.Context(), foundationID, activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get program
// @Description Get program detail
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpProgramList)
	if !ok {
		return
	}

	program, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create program
// @Description Open a new program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpProgramCreate)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	program, err := h.service.Create(c.Request.Context(), foundationID, req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, program)
}

// Close godoc
// @Summary Close program
// @Description Deactivate a program
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/close [post]
func (h *ProgramHandler) Close(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpProgramCreate)
	if !ok {
		return
	}

	program, err := h.service.Close(c.Request.Context(), c.Param("id"), actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, program, nil)
}

// Enrollments godoc
// @Summary List enrollments
// @Description List a program's enrollments
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/enrollments [get]
func (h *ProgramHandler) Enrollments(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpProgramEnroll)
	if !ok {
		return
	}

	enrollments, err := h.service.Enrollments(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, nil)
}

type enrollRequest struct {
	BeneficiaryID string `json:"beneficiary_id" binding:"required"`
}

// Enroll godoc
// @Summary Enroll beneficiary
// @Description Enroll a beneficiary into a program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param payload body handler.enrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /programs/{id}/enrollments [post]
func (h *ProgramHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpProgramEnroll)
	if !ok {
		return
	}

	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), c.Param("id"), req.BeneficiaryID, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, enrollment)
}

type updateEnrollmentRequest struct {
	BeneficiaryID string `json:"beneficiary_id" binding:"required"`
	Status        string `json:"status" binding:"required"`
}

// UpdateEnrollment godoc
// @Summary Update enrollment
// @Description Mark an enrollment completed or withdrawn
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param payload body handler.updateEnrollmentRequest true "Enrollment status payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/enrollments [put]
func (h *ProgramHandler) UpdateEnrollment(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpProgramEnroll)
	if !ok {
		return
	}

	var req updateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	enrollment, err := h.service.UpdateEnrollment(c.Request.Context(), c.Param("id"), req.BeneficiaryID, models.EnrollmentStatus(req.Status), actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollment, nil)
}
