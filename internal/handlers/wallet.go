package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

type WalletHandler struct {
	redisService   *services.RedisService
	paymentService *services.PaymentService
}

func NewWalletHandler(redisService *services.RedisService, paymentService *services.PaymentService) *WalletHandler {
	return &WalletHandler{
		redisService:   redisService,
		paymentService: paymentService,
	}
}

// Credit adds funds to a wallet. Admins may credit anyone; users only
// themselves.
func (h *WalletHandler) Credit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	targetID := c.Param("id")

	if !user.IsAdmin() && user.ID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your wallet"})
		return
	}

	var req models.WalletMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.redisService.CreditWallet(targetID, req.Amount, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance})
}

// Debit withdraws funds; fails without state change when the balance is
// short.
func (h *WalletHandler) Debit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	targetID := c.Param("id")

	if !user.IsAdmin() && user.ID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your wallet"})
		return
	}

	var req models.WalletMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.redisService.DebitWallet(targetID, req.Amount, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance})
}

func (h *WalletHandler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)
	targetID := c.Param("id")

	if !user.IsAdmin() && user.ID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your wallet"})
		return
	}

	page, limit := pageParams(c)
	actions, err := h.redisService.GetWalletHistory(targetID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"actions": actions,
		"count":   len(actions),
	})
}

// Deposit starts a Stripe payment for a wallet top-up and returns the
// client secret for the frontend to confirm.
func (h *WalletHandler) Deposit(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	intent, err := h.paymentService.CreateDeposit(c.Request.Context(), user, req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"intent_id":     intent.ID,
		"client_secret": intent.ClientSecret,
	})
}

// StripeWebhook receives payment confirmations. Unauthenticated route;
// trust comes from the signature header.
func (h *WalletHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	if err := h.paymentService.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		zap.L().Warn("Stripe webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
