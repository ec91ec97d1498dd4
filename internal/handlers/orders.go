package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

type OrderHandler struct {
	orderService *services.OrderService
	redisService *services.RedisService
}

func NewOrderHandler(orderService *services.OrderService, redisService *services.RedisService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		redisService: redisService,
	}
}

func (h *OrderHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

// Get returns a single order to its buyer, seller, or an admin. The
// buyer additionally receives the purchased account's credentials.
func (h *OrderHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)

	order, err := h.redisService.GetOrder(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsAdmin() && user.ID != order.ClientID && user.ID != order.SellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your order"})
		return
	}

	response := gin.H{"success": true, "order": order}
	if user.ID == order.ClientID || user.IsAdmin() {
		if account, err := h.redisService.GetAccount(order.AccountID); err == nil {
			response["credentials"] = account.Credentials
		}
	}

	c.JSON(http.StatusOK, response)
}

// UpdateStatus is the admin dispute-resolution endpoint: completed or
// refunded. A refund credits the buyer's wallet.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (h *OrderHandler) Review(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, err := h.orderService.Review(c.Request.Context(), c.Param("id"), user.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	page, limit := pageParams(c)

	orders, err := h.redisService.ListAllOrders(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := h.orderService.Summarize(orders)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  summaries,
		"count":   len(summaries),
	})
}

// ListBySeller serves a seller their own sales; admins may query any
// seller.
func (h *OrderHandler) ListBySeller(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sellerID := c.Param("id")

	if !user.IsAdmin() && user.ID != sellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your sales"})
		return
	}

	page, limit := pageParams(c)
	orders, err := h.redisService.ListOrdersBySeller(sellerID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := h.orderService.Summarize(orders)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  summaries,
		"count":   len(summaries),
	})
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page, limit := pageParams(c)

	orders, err := h.redisService.ListOrdersByClient(user.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := h.orderService.Summarize(orders)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  summaries,
		"count":   len(summaries),
	})
}
