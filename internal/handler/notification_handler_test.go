package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconaid/foundation-api/internal/middleware"
	"github.com/beaconaid/foundation-api/internal/models"
	"github.com/beaconaid/foundation-api/internal/service"
	"github.com/beaconaid/foundation-api/pkg/jobs"
)

type accessRepoMock struct {
	user *models.User
}

func (m *accessRepoMock) FindByIdentityKey(_ context.Context, key string) (*models.User, error) {
	if m.user == nil || m.user.IdentityKey != key {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

type notificationRepoMock struct {
	notifications []models.Notification
	markedRead    []string
}

func (m *notificationRepoMock) List(_ context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == filter.UserID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *notificationRepoMock) Create(_ context.Context, n *models.Notification) error {
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *notificationRepoMock) MarkRead(_ context.Context, id, userID string, _ time.Time) error {
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			m.markedRead = append(m.markedRead, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *notificationRepoMock) MarkAllRead(_ context.Context, userID string, _ time.Time) error {
	for _, n := range m.notifications {
		if n.UserID == userID {
			m.markedRead = append(m.markedRead, n.ID)
		}
	}
	return nil
}

func (m *notificationRepoMock) MarkDispatched(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *notificationRepoMock) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func notificationTestContext(t *testing.T, repo *notificationRepoMock, actor *models.User) (*NotificationHandler, *httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewNotificationService(repo, jobs.QueueConfig{}, nil)
	gate := service.NewAccessService(&accessRepoMock{user: actor}, nil, nil)
	handler := NewNotificationHandler(svc, gate)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return handler, w, c
}

func beneficiaryActor() *models.User {
	foundationID := "fnd-1"
	return &models.User{
		ID:           "ben-1",
		IdentityKey:  "subject-ben-1",
		Email:        "beneficiary@example.com",
		Role:         models.RoleBeneficiary,
		FoundationID: &foundationID,
		Active:       true,
	}
}

func setClaims(c *gin.Context, actor *models.User) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:       actor.ID,
		SubjectKey:   actor.IdentityKey,
		Email:        actor.Email,
		Role:         actor.Role,
		FoundationID: actor.FoundationID,
	})
}

func TestNotificationHandlerListScopesToActor(t *testing.T) {
	actor := beneficiaryActor()
	repo := &notificationRepoMock{notifications: []models.Notification{
		{ID: "ntf-1", UserID: actor.ID, Title: "Disbursement paid"},
		{ID: "ntf-2", UserID: "someone-else", Title: "Not yours"},
	}}
	handler, w, c := notificationTestContext(t, repo, actor)
	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	c.Request = req
	setClaims(c, actor)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "ntf-1", envelope.Data[0].ID)
}

func TestNotificationHandlerListWithoutClaims(t *testing.T) {
	handler, w, c := notificationTestContext(t, &notificationRepoMock{}, beneficiaryActor())
	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	c.Request = req

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationHandlerListDeactivatedAccount(t *testing.T) {
	actor := beneficiaryActor()
	actor.Active = false
	handler, w, c := notificationTestContext(t, &notificationRepoMock{}, actor)
	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	c.Request = req
	setClaims(c, actor)

	handler.List(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNotificationHandlerMarkReadUnknownID(t *testing.T) {
	actor := beneficiaryActor()
	handler, w, c := notificationTestContext(t, &notificationRepoMock{}, actor)
	req, _ := http.NewRequest(http.MethodPost, "/notifications/missing/read", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	setClaims(c, actor)

	handler.MarkRead(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	actor := beneficiaryActor()
	repo := &notificationRepoMock{notifications: []models.Notification{{ID: "ntf-1", UserID: actor.ID}}}
	handler, w, c := notificationTestContext(t, repo, actor)
	req, _ := http.NewRequest(http.MethodPost, "/notifications/ntf-1/read", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ntf-1"}}
	setClaims(c, actor)

	handler.MarkRead(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"ntf-1"}, repo.markedRead)
}

func TestNotificationHandlerUnreadCount(t *testing.T) {
	actor := beneficiaryActor()
	readAt := time.Now().UTC()
	repo := &notificationRepoMock{notifications: []models.Notification{
		{ID: "ntf-1", UserID: actor.ID},
		{ID: "ntf-2", UserID: actor.ID, ReadAt: &readAt},
	}}
	handler, w, c := notificationTestContext(t, repo, actor)
	req, _ := http.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	c.Request = req
	setClaims(c, actor)

	handler.UnreadCount(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data["unread"])
}
