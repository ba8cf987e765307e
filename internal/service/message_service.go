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

type messageRepository interface {
	List(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error)
	FindByID(ctx context.Context, id string) (*models.Message, error)
	Create(ctx context.Context, msg *models.Message) error
	MarkRead(ctx context.Context, id string, readAt time.Time) error
}

// SendMessageRequest is the compose payload.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Subject     string `json:"subject" validate:"required"`
	Body        string `json:"body" validate:"required"`
}

// MessageService handles intra-foundation messaging between users.
type MessageService struct {
	repo      messageRepository
	users     supportUserReader
	audit     auditWriter
	notify    notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(repo messageRepository, users supportUserReader, audit auditWriter, notify notifier, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, users: users, audit: audit, notify: notify, validator: validate, logger: logger}
}

// List returns messages matching the filter.
func (s *MessageService) List(ctx context.Context, filter models.MessageFilter) ([]models.Message, *models.Pagination, error) {
	msgs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return msgs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Send delivers a message to another user of the same foundation.
func (s *MessageService) Send(ctx context.Context, sender *models.User, req SendMessageRequest, meta models.RequestMeta) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if sender.FoundationID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "account is not assigned to a foundation")
	}
	if req.RecipientID == sender.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot send a message to yourself")
	}

	recipient, err := s.users.FindByID(ctx, req.RecipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}
	if recipient.Role != models.RoleSuperAdmin {
		if recipient.FoundationID == nil || *recipient.FoundationID != *sender.FoundationID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recipient belongs to a different foundation")
		}
	}

	msg := &models.Message{
		ID:           uuid.NewString(),
		FoundationID: *sender.FoundationID,
		SenderID:     sender.ID,
		RecipientID:  req.RecipientID,
		Subject:      req.Subject,
		Body:         req.Body,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}

	s.writeAudit(ctx, sender, msg, meta)

	if s.notify != nil {
		s.notify.Notify(ctx, msg.RecipientID, &msg.FoundationID, models.NotificationMessage,
			"New message", fmt.Sprintf("%s sent you a message: %s", sender.FullName, msg.Subject))
	}

	return msg, nil
}

// MarkRead marks a message read; only the recipient may do so.
func (s *MessageService) MarkRead(ctx context.Context, id string, actor *models.User) (*models.Message, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	if msg.RecipientID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the recipient can mark a message read")
	}
	if msg.Read {
		return msg, nil
	}

	now := time.Now().UTC()
	if err := s.repo.MarkRead(ctx, id, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark message read")
	}
	msg.Read = true
	msg.ReadAt = &now
	return msg, nil
}

func (s *MessageService) writeAudit(ctx context.Context, actor *models.User, msg *models.Message, meta models.RequestMeta) {
	log := &models.AuditLog{
		FoundationID: &msg.FoundationID,
		Action:       models.AuditActionMessageSend,
		EntityType:   "messages",
		EntityID:     &msg.ID,
		Description:  fmt.Sprintf("Sent message to user %s", msg.RecipientID),
		RiskLevel:    models.RiskLow,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	}
	if actor != nil {
		log.ActorID = &actor.ID
		log.ActorEmail = actor.Email
		log.ActorRole = string(actor.Role)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record message audit log", zap.Error(err))
	}
}
