package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	chat, created, err := h.chatService.CreateChat(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"success": true,
		"chat":    chat,
		"created": created,
	})
}

// ListMine returns chat summaries sorted by last activity, without the
// message payloads.
func (h *ChatHandler) ListMine(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page, limit := pageParams(c)

	summaries, err := h.chatService.SummariesForUser(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chats":   summaries,
		"count":   len(summaries),
	})
}

// Get returns the full chat and, as a side effect, marks every message
// not authored by the requester as read.
func (h *ChatHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)

	chat, err := h.chatService.GetAuthorized(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.chatService.MarkAllRead(c.Request.Context(), chat.ID, user); err == nil {
		for i := range chat.Messages {
			if chat.Messages[i].SenderID != user.ID {
				chat.Messages[i].Read = true
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "chat": chat})
}

func (h *ChatHandler) PostMessage(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	_, msg, err := h.chatService.AddMessage(c.Request.Context(), c.Param("id"), user, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	user := middleware.CurrentUser(c)

	changed, err := h.chatService.MarkAllRead(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "changed": changed})
}
