package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
	"github.com/beaconaid/foundation-api/pkg/export"
)

type financeRepository interface {
	List(ctx context.Context, filter models.DisbursementFilter) ([]models.Disbursement, int, error)
	FindByID(ctx context.Context, id string) (*models.Disbursement, error)
	Create(ctx context.Context, d *models.Disbursement) error
	Update(ctx context.Context, d *models.Disbursement) error
	Summary(ctx context.Context, foundationID string) (*models.FinanceSummary, error)
}

// CreateDisbursementRequest schedules one payout.
type CreateDisbursementRequest struct {
	BeneficiaryID string  `json:"beneficiary_id" validate:"required,uuid"`
	SupportType   string  `json:"support_type" validate:"required"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Currency      string  `json:"currency"`
	Reference     string  `json:"reference"`
	Note          string  `json:"note"`
}

// MarkDisbursementRequest settles a pending payout.
type MarkDisbursementRequest struct {
	Status models.DisbursementStatus `json:"status" validate:"required,oneof=paid failed"`
	Note   string                    `json:"note"`
}

// FinanceService manages disbursements, the finance summary, and statement
// exports.
type FinanceService struct {
	repo      financeRepository
	users     supportUserReader
	audit     auditWriter
	notify    notifier
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	statement string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFinanceService constructs the service. statementName titles PDF exports.
func NewFinanceService(repo financeRepository, users supportUserReader, audit auditWriter, notify notifier, statementName string, validate *validator.Validate, logger *zap.Logger) *FinanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if statementName == "" {
		statementName = "Disbursement Statement"
	}
	return &FinanceService{
		repo:      repo,
		users:     users,
		audit:     audit,
		notify:    notify,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		statement: statementName,
		validator: validate,
		logger:    logger,
	}
}

// List returns disbursements matching the filter.
func (s *FinanceService) List(ctx context.Context, filter models.DisbursementFilter) ([]models.Disbursement, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list disbursements")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return rows, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one disbursement, provided the actor may see it.
func (s *FinanceService) Get(ctx context.Context, id string, actor *models.User) (*models.Disbursement, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "disbursement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disbursement")
	}
	if err := ensureFoundation(actor, d.FoundationID); err != nil {
		return nil, err
	}
	return d, nil
}

// Create schedules a payout for a beneficiary of the same foundation.
func (s *FinanceService) Create(ctx context.Context, foundationID string, req CreateDisbursementRequest, actor *models.User, meta models.RequestMeta) (*models.Disbursement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid disbursement payload")
	}

	beneficiary, err := s.users.FindByID(ctx, req.BeneficiaryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beneficiary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beneficiary")
	}
	if beneficiary.FoundationID == nil || *beneficiary.FoundationID != foundationID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "beneficiary belongs to a different foundation")
	}

	currency := req.Currency
	if currency == "" {
		currency = "NGN"
	}

	d := &models.Disbursement{
		ID:            uuid.NewString(),
		FoundationID:  foundationID,
		BeneficiaryID: req.BeneficiaryID,
		SupportType:   req.SupportType,
		Amount:        req.Amount,
		Currency:      currency,
		Status:        models.DisbursementPending,
		Reference:     req.Reference,
		Note:          req.Note,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create disbursement")
	}

	s.writeAudit(ctx, actor, d, models.AuditActionDisbursement,
		fmt.Sprintf("Scheduled %s %s %.2f for beneficiary %s", d.SupportType, d.Currency, d.Amount, d.BeneficiaryID),
		models.RiskHigh, meta)

	return d, nil
}

// Mark settles a pending disbursement as paid or failed.
func (s *FinanceService) Mark(ctx context.Context, id string, req MarkDisbursementRequest, actor *models.User, meta models.RequestMeta) (*models.Disbursement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	d, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if d.Status != models.DisbursementPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "disbursement has already been settled")
	}

	d.Status = req.Status
	if req.Note != "" {
		d.Note = req.Note
	}
	if req.Status == models.DisbursementPaid {
		now := time.Now().UTC()
		d.DisbursedAt = &now
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update disbursement")
	}

	s.writeAudit(ctx, actor, d, models.AuditActionDisbursementMark,
		fmt.Sprintf("Disbursement %s marked %s", d.ID, d.Status), models.RiskCritical, meta)

	if s.notify != nil && d.Status == models.DisbursementPaid {
		s.notify.Notify(ctx, d.BeneficiaryID, &d.FoundationID, models.NotificationDisbursement,
			"Disbursement paid",
			fmt.Sprintf("Your %s support of %s %.2f has been paid.", d.SupportType, d.Currency, d.Amount))
	}

	return d, nil
}

// Summary aggregates payout totals for a foundation.
func (s *FinanceService) Summary(ctx context.Context, foundationID string) (*models.FinanceSummary, error) {
	summary, err := s.repo.Summary(ctx, foundationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build finance summary")
	}
	return summary, nil
}

// ExportStatement renders disbursements matching the filter as CSV or PDF.
// The returned content type matches the rendered bytes.
func (s *FinanceService) ExportStatement(ctx context.Context, filter models.DisbursementFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 10000

	rows, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disbursements for export")
	}

	dataset := export.Dataset{
		Headers: []string{"Reference", "Beneficiary", "Support Type", "Amount", "Currency", "Status", "Disbursed At"},
	}
	for _, d := range rows {
		disbursedAt := ""
		if d.DisbursedAt != nil {
			disbursedAt = d.DisbursedAt.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Reference":    d.Reference,
			"Beneficiary":  d.BeneficiaryID,
			"Support Type": d.SupportType,
			"Amount":       strconv.FormatFloat(d.Amount, 'f', 2, 64),
			"Currency":     d.Currency,
			"Status":       string(d.Status),
			"Disbursed At": disbursedAt,
		})
	}

	switch format {
	case "pdf":
		content, err := s.pdf.Render(dataset, s.statement)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf statement")
		}
		return content, "application/pdf", nil
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv statement")
		}
		return content, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *FinanceService) writeAudit(ctx context.Context, actor *models.User, d *models.Disbursement, action, description, risk string, meta models.RequestMeta) {
	log := &models.AuditLog{
		FoundationID: &d.FoundationID,
		Action:       action,
		EntityType:   "disbursements",
		EntityID:     &d.ID,
		Description:  description,
		RiskLevel:    risk,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	}
	if actor != nil {
		log.ActorID = &actor.ID
		log.ActorEmail = actor.Email
		log.ActorRole = string(actor.Role)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record finance audit log", zap.Error(err))
	}
}
