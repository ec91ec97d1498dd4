package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

type UserHandler struct {
	redisService *services.RedisService
}

func NewUserHandler(redisService *services.RedisService) *UserHandler {
	return &UserHandler{redisService: redisService}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *UserHandler) UpdateNotifications(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var prefs models.NotificationPrefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user.Notifications = prefs
	if err := h.redisService.SaveUser(user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": prefs})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	users, err := h.redisService.ListUsers(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
		"count":   len(users),
	})
}

// SetUserStatus suspends or reactivates a user. Admin only.
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	var req struct {
		Status models.UserStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.Status != models.UserStatusActive && req.Status != models.UserStatusSuspended {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	user, err := h.redisService.GetUser(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	user.Status = req.Status
	if err := h.redisService.SaveUser(user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// PromoteSeller upgrades a user to the seller role. Admin only.
func (h *UserHandler) PromoteSeller(c *gin.Context) {
	user, err := h.redisService.GetUser(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if user.Role == models.RoleUser {
		user.Role = models.RoleSeller
		if err := h.redisService.SaveUser(user); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
