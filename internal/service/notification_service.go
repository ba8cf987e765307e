package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
	"github.com/beaconaid/foundation-api/pkg/jobs"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	Create(ctx context.Context, n *models.Notification) error
	MarkRead(ctx context.Context, id, userID string, readAt time.Time) error
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) error
	MarkDispatched(ctx context.Context, id string, dispatchedAt time.Time) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// NotificationService persists in-app notifications and hands dispatch work
// to a background queue. The queue is optional; without it notifications are
// still stored and readable in-app.
type NotificationService struct {
	repo   notificationRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue.
func NewNotificationService(repo notificationRepository, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, logger: logger}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.queue = jobs.NewQueue("notifications", s.dispatch, cfg)
	return s
}

// Start begins background dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify stores a notification and queues it for dispatch. Failures are
// logged, not returned: a missed notification never fails the triggering
// operation.
func (s *NotificationService) Notify(ctx context.Context, userID string, foundationID *string, kind, title, body string) {
	n := &models.Notification{
		ID:           uuid.NewString(),
		FoundationID: foundationID,
		UserID:       userID,
		Kind:         kind,
		Title:        title,
		Body:         body,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("user_id", userID), zap.String("kind", kind), zap.Error(err))
		return
	}

	if err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: kind, Payload: n}); err != nil {
		s.logger.Warn("failed to enqueue notification dispatch",
			zap.String("notification_id", n.ID), zap.Error(err))
	}
}

// List returns a user's notifications.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
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

// UnreadCount returns the user's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	return count, nil
}

// MarkRead marks one notification read for the given user.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification read for the given user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// dispatch is the queue handler. Delivery channels beyond the in-app row
// (email, SMS) would hang off this; today it just timestamps the row.
func (s *NotificationService) dispatch(ctx context.Context, job jobs.Job) error {
	if err := s.repo.MarkDispatched(ctx, job.ID, time.Now().UTC()); err != nil {
		return err
	}
	s.logger.Debug("notification dispatched",
		zap.String("notification_id", job.ID), zap.String("kind", job.Type))
	return nil
}
