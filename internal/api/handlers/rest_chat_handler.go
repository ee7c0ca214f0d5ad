package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/services"
)

// RestChatHandler serves the chat opened by an accepted request.
type RestChatHandler struct {
	requestService services.IRequestService
	chatService    services.IChatService
}

func NewRestChatHandler(requestService services.IRequestService, chatService services.IChatService) *RestChatHandler {
	return &RestChatHandler{requestService: requestService, chatService: chatService}
}

type sendMessageBody struct {
	Body string `json:"body" binding:"required"`
}

// participantRequest loads the request behind the chat and checks the caller takes part in it.
func (h *RestChatHandler) participantRequest(c *gin.Context) (*models.Request, bool) {
	req, err := h.requestService.FindRequestByChatID(c.Request.Context(), c.Param("chat_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve chat")
		return nil, false
	}
	userID := middleware.UserID(c)
	if userID != req.RenterID && userID != req.OwnerID {
		respondError(c, services.ErrNotParticipant, "")
		return nil, false
	}
	return req, true
}

// GetMessages handles GET /v1/chats/:chat_id/messages
func (h *RestChatHandler) GetMessages(c *gin.Context) {
	if _, ok := h.participantRequest(c); !ok {
		return
	}
	messages, err := h.chatService.FetchMessages(c.Request.Context(), c.Param("chat_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

// SendMessage handles POST /v1/chats/:chat_id/messages
func (h *RestChatHandler) SendMessage(c *gin.Context) {
	var body sendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message body is required"})
		return
	}
	req, ok := h.participantRequest(c)
	if !ok {
		return
	}
	if req.Status != models.StatusAccepted {
		c.JSON(http.StatusConflict, gin.H{"error": "Chat is closed"})
		return
	}

	from := middleware.UserID(c)
	to := req.OwnerID
	if from == req.OwnerID {
		to = req.RenterID
	}
	msg, err := h.chatService.SendMessage(c.Request.Context(), req.ChatID, models.SendMessageData{
		Body:       body.Body,
		FromUserID: from,
		ToUserID:   to,
	})
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": msg})
}
