package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beaconaid/foundation-api/internal/models"
	"github.com/beaconaid/foundation-api/internal/service"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
	"github.com/beaconaid/foundation-api/pkg/response"
)

// FinanceHandler handles disbursement and statement endpoints.
type FinanceHandler struct {
	service *service.FinanceService
	gate    *service.AccessService
}

// NewFinanceHandler creates a new finance handler.
func NewFinanceHandler(svc *service.FinanceService, gate *service.AccessService) *FinanceHandler {
	return &FinanceHandler{service: svc, gate: gate}
}

func (h *FinanceHandler) parseFilter(c *gin.Context, actor *models.User) models.DisbursementFilter {
	var filter models.DisbursementFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SupportType = c.Query("support_type")
	if status := c.Query("status"); status != "" {
		st := models.DisbursementStatus(status)
		filter.Status = &st
	}
	if bid := c.Query("beneficiary_id"); bid != "" {
		filter.BeneficiaryID = &bid
	}
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = &ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = &ts
		}
	}
	if actor.Role == models.RoleSuperAdmin {
		if fid := c.Query("foundation_id"); fid != "" {
			filter.FoundationID = &fid
		}
	} else {
		filter.FoundationID = actor.FoundationID
	}
	return filter
}

// List godoc
// @Summary List disbursements
// @Description List disbursements with pagination and filtering
// @Tags Finance
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /finance/disbursements [get]
func (h *FinanceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpDisbursementList)
	if !ok {
		return
	}

	rows, pagination, err := h.service.List(c.Request.Context(), h.parseFilter(c, actor))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, pagination)
}

// Create godoc
// @Summary Create disbursement
// @Description Schedule a payout to a beneficiary
// @Tags Finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateDisbursementRequest true "Disbursement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /finance/disbursements [post]
func (h *FinanceHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpDisbursementCreate)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	var req service.CreateDisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	d, err := h.service.Create(c.Request.Context(), foundationID, req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, d)
}

// Mark godoc
// @Summary Settle disbursement
// @Description Mark a pending disbursement paid or failed
// @Tags Finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Disbursement ID"
// @Param payload body service.MarkDisbursementRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /finance/disbursements/{id}/status [put]
func (h *FinanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpDisbursementMark)
	if !ok {
		return
	}

	var req service.MarkDisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	d, err := h.service.Mark(c.Request.Context(), c.Param("id"), req, actor, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, d, nil)
}

// Summary godoc
// @Summary Finance summary
// @Description Aggregate payout totals for a foundation
// @Tags Finance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /finance/summary [get]
func (h *FinanceHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpFinanceSummary)
	if !ok {
		return
	}
	foundationID, ok := resolveFoundation(c, actor)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), foundationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export statement
// @Description Download a disbursement statement as CSV or PDF
// @Tags Finance
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /finance/disbursements/export [get]
func (h *FinanceHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, foundationScope(c, claims), service.OpFinanceExport)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "csv")
	content, contentType, err := h.service.ExportStatement(c.Request.Context(), h.parseFilter(c, actor), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("disbursements-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, content)
}
