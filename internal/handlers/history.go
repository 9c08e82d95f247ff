package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/models"
	"chat-relay/internal/repositories"
	"chat-relay/internal/ws"
)

// HistoryHandler serves the REST view of a room's recent messages.
type HistoryHandler struct {
	messageRepo repositories.MessageRepository
}

// NewHistoryHandler builds a HistoryHandler.
func NewHistoryHandler(messageRepo repositories.MessageRepository) *HistoryHandler {
	return &HistoryHandler{messageRepo: messageRepo}
}

// GetRoomMessages returns the same replay set a joining websocket session
// receives: the last visible messages, oldest first.
func (h *HistoryHandler) GetRoomMessages(c *gin.Context) {
	room := c.Param("code")

	msgs, err := h.messageRepo.ListRecentVisible(c.Request.Context(), room, ws.ReplayLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	events := make([]models.Event, 0, len(msgs))
	for _, msg := range msgs {
		events = append(events, msg.ToEvent())
	}
	c.JSON(http.StatusOK, gin.H{"messages": events})
}
