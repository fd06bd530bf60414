package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"roomchat/domain"
	"roomchat/services"
)

type MessageHandler struct {
	messageService services.IMessageService
}

func NewMessageHandler(messageService services.IMessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessageRequest targets a room or a user, never both.
type SendMessageRequest struct {
	Content     string `json:"content"`
	RoomID      string `json:"roomId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if (req.RoomID == "") == (req.RecipientID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of roomId or recipientId is required"})
		return
	}

	var (
		msg domain.Message
		err error
	)
	if req.RoomID != "" {
		msg, err = h.messageService.SendRoomMessage(c.Request.Context(), currentUser(c), req.RoomID, req.Content)
	} else {
		msg, err = h.messageService.SendPrivateMessage(c.Request.Context(), currentUser(c), req.RecipientID, req.Content)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (h *MessageHandler) ListRoom(c *gin.Context) {
	messages, err := h.messageService.ListRoomMessages(currentUser(c), c.Param("roomId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(messages, func(msg domain.Message, _ int) MessageResponse {
		return toMessageResponse(msg)
	}))
}

func (h *MessageHandler) ListPrivate(c *gin.Context) {
	messages, err := h.messageService.ListPrivateMessages(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(messages, func(msg domain.Message, _ int) MessageResponse {
		return toMessageResponse(msg)
	}))
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	msg, err := h.messageService.MarkAsRead(currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(msg))
}
