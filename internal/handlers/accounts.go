package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gamemarket-backend/internal/catalog"
	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

type AccountHandler struct {
	redisService *services.RedisService
	catalog      *catalog.Catalog
}

func NewAccountHandler(redisService *services.RedisService, cat *catalog.Catalog) *AccountHandler {
	return &AccountHandler{
		redisService: redisService,
		catalog:      cat,
	}
}

func (h *AccountHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.CanSell() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seller role required"})
		return
	}

	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.ValidateAttributes(req.Game, req.Attributes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.AccountStatusActive
	if req.Draft {
		status = models.AccountStatusDraft
	}

	now := time.Now().Unix()
	account := &models.Account{
		ID:          models.GenerateAccountID(),
		Game:        req.Game,
		Title:       req.Title,
		Slug:        models.Slugify(req.Title),
		Description: req.Description,
		Price:       req.Price,
		Credentials: req.Credentials,
		Attributes:  req.Attributes,
		Status:      status,
		Gallery:     req.Gallery,
		SellerID:    user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.redisService.SaveAccount(account); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "account": account})
}

func (h *AccountHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)

	account, err := h.redisService.GetAccount(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if account.SellerID != user.ID && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your listing"})
		return
	}
	if account.Status == models.AccountStatusSold {
		respondError(c, services.ErrListingSold)
		return
	}

	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if req.Title != nil {
		account.Title = *req.Title
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
			return
		}
		account.Price = *req.Price
	}
	if req.Credentials != nil {
		account.Credentials = *req.Credentials
	}
	if req.Attributes != nil {
		if err := h.catalog.ValidateAttributes(account.Game, req.Attributes); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		account.Attributes = req.Attributes
	}
	if req.Gallery != nil {
		account.Gallery = req.Gallery
	}
	if req.Publish && account.Status == models.AccountStatusDraft {
		account.Status = models.AccountStatusActive
	}

	if err := h.redisService.SaveAccount(account); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "account": account})
}

// List returns active listings for one game, newest first. Credentials
// are never included in the marketplace view.
func (h *AccountHandler) List(c *gin.Context) {
	game := c.Query("game")
	if !h.catalog.Has(game) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown game",
			"games": h.catalog.Keys(),
		})
		return
	}

	page, limit := pageParams(c)
	accounts, err := h.redisService.ListActiveAccounts(game, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.Account, 0, len(accounts))
	for _, account := range accounts {
		pub := account.Public()
		pub.Views = h.redisService.GetViews(account.ID)
		response = append(response, pub)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"accounts": response,
		"count":    len(response),
	})
}

// Get resolves an account by ID or slug, bumping the view counter.
// Credentials are only shown to the owning seller or an admin; buyers
// receive them through their order.
func (h *AccountHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id := c.Param("id")

	var account *models.Account
	var err error
	if strings.HasPrefix(id, "acct_") {
		account, err = h.redisService.GetAccount(id)
	} else {
		account, err = h.redisService.GetAccountBySlug(id)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	views, _ := h.redisService.IncrementViews(account.ID)

	out := account.Public()
	if user.IsAdmin() || user.ID == account.SellerID {
		out = *account
	}
	out.Views = views

	c.JSON(http.StatusOK, gin.H{"success": true, "account": out})
}

// MyListings returns the seller's own accounts, drafts included.
func (h *AccountHandler) MyListings(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page, limit := pageParams(c)

	accounts, err := h.redisService.ListSellerAccounts(user.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	for _, account := range accounts {
		account.Views = h.redisService.GetViews(account.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"accounts": accounts,
		"count":    len(accounts),
	})
}
