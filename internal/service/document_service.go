package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type documentRepository interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
}

// RegisterDocumentRequest records metadata for a file the beneficiary has
// already uploaded to external storage.
type RegisterDocumentRequest struct {
	DocType     string `json:"doc_type" validate:"required"`
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"gt=0"`
	StorageKey  string `json:"storage_key" validate:"required"`
}

// ReviewDocumentRequest verifies or rejects a document.
type ReviewDocumentRequest struct {
	Approve      bool   `json:"approve"`
	RejectReason string `json:"reject_reason"`
}

// DocumentService tracks submitted paperwork and its review state.
type DocumentService struct {
	repo      documentRepository
	audit     auditWriter
	notify    notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentRepository, audit auditWriter, notify notifier, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, audit: audit, notify: notify, validator: validate, logger: logger}
}

// List returns documents matching the filter.
func (s *DocumentService) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return docs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one document, provided the actor may see it.
func (s *DocumentService) Get(ctx context.Context, id string, actor *models.User) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if err := ensureFoundation(actor, doc.FoundationID); err != nil {
		return nil, err
	}
	return doc, nil
}

// Register stores the metadata row for an uploaded file.
func (s *DocumentService) Register(ctx context.Context, owner *models.User, req RegisterDocumentRequest, meta models.RequestMeta) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}
	if owner.FoundationID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "account is not assigned to a foundation")
	}

	doc := &models.Document{
		ID:           uuid.NewString(),
		FoundationID: *owner.FoundationID,
		OwnerID:      owner.ID,
		DocType:      req.DocType,
		FileName:     req.FileName,
		ContentType:  req.ContentType,
		SizeBytes:    req.SizeBytes,
		StorageKey:   req.StorageKey,
		Status:       models.DocumentPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register document")
	}

	s.writeAudit(ctx, owner, doc, models.AuditActionDocumentCreate,
		fmt.Sprintf("Submitted %s document %s", doc.DocType, doc.FileName), models.RiskLow, meta)

	return doc, nil
}

// Review verifies or rejects a pending document and notifies the owner.
func (s *DocumentService) Review(ctx context.Context, id string, req ReviewDocumentRequest, actor *models.User, meta models.RequestMeta) (*models.Document, error) {
	doc, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document has already been reviewed")
	}

	now := time.Now().UTC()
	doc.VerifiedAt = &now
	if actor != nil {
		doc.VerifiedBy = &actor.ID
	}

	var title, body string
	if req.Approve {
		doc.Status = models.DocumentVerified
		title = "Document verified"
		body = fmt.Sprintf("Your %s document %s has been verified.", doc.DocType, doc.FileName)
	} else {
		if req.RejectReason == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reject_reason is required when rejecting")
		}
		doc.Status = models.DocumentRejected
		doc.RejectReason = req.RejectReason
		title = "Document rejected"
		body = fmt.Sprintf("Your %s document %s was rejected: %s", doc.DocType, doc.FileName, req.RejectReason)
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review document")
	}

	s.writeAudit(ctx, actor, doc, models.AuditActionDocumentVerify,
		fmt.Sprintf("Document %s marked %s", doc.ID, doc.Status), models.RiskMedium, meta)

	if s.notify != nil {
		s.notify.Notify(ctx, doc.OwnerID, &doc.FoundationID, models.NotificationDocumentReview, title, body)
	}

	return doc, nil
}

func (s *DocumentService) writeAudit(ctx context.Context, actor *models.User, doc *models.Document, action, description, risk string, meta models.RequestMeta) {
	log := &models.AuditLog{
		FoundationID: &doc.FoundationID,
		Action:       action,
		EntityType:   "documents",
		EntityID:     &doc.ID,
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
		s.logger.Warn("failed to record document audit log", zap.Error(err))
	}
}
