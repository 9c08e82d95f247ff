package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/repositories"
	"chat-relay/internal/rooms"
)

// RoomHandler manages the room directory endpoints.
type RoomHandler struct {
	directory *rooms.Directory
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(directory *rooms.Directory) *RoomHandler {
	return &RoomHandler{directory: directory}
}

// CreateRoom provisions a room under a generated code.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.directory.Create(c.Request.Context(), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": room.Code, "title": room.Title})
}

// RoomExists reports whether a room code is provisioned.
func (h *RoomHandler) RoomExists(c *gin.Context) {
	exists, err := h.directory.Exists(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// GetRoom returns room metadata by code.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.directory.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room lookup failed"})
		return
	}
	c.JSON(http.StatusOK, room)
}
