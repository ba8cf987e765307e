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

// MessageHandler handles direct-message endpoints.
type MessageHandler struct {
	service *service.MessageService
	gate    *service.AccessService
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, gate *service.AccessService) *MessageHandler {
	return &MessageHandler{service: svc, gate: gate}
}

// List godoc
// @Summary List messages
// @Description List the caller's inbox, or sent messages with box=sent
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param box query string false "inbox or sent" default(inbox)
// @Param unread_only query bool false "Only unread messages"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, claims.FoundationID, service.OpMessageList)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread_only", "false"))

	filter := models.MessageFilter{
		UnreadOnly: unreadOnly,
		Page:       page,
		PageSize:   pageSize,
	}
	if c.DefaultQuery("box", "inbox") == "sent" {
		filter.SenderID = &actor.ID
	} else {
		filter.RecipientID = &actor.ID
	}

	messages, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages, pagination)
}

// Send godoc
// @Summary Send message
// @Description Send a direct message to another user in the same foundation
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SendMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, claims.FoundationID, service.OpMessageSend)
	if !ok {
		return
	}

	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	msg, err := h.service.Send(c.Request.Context(), actor, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, msg)
}

// MarkRead godoc
// @Summary Mark message read
// @Description Mark a received message as read
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	actor, ok := authorize(c, h.gate, claims.FoundationID, service.OpMessageList)
	if !ok {
		return
	}

	msg, err := h.service.MarkRead(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, msg, nil)
}
