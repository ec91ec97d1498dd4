package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

type TicketHandler struct {
	ticketService *services.TicketService
	redisService  *services.RedisService
}

func NewTicketHandler(ticketService *services.TicketService, redisService *services.RedisService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		redisService:  redisService,
	}
}

func (h *TicketHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "ticket": ticket})
}

// Join claims an unassigned ticket for the calling admin.
func (h *TicketHandler) Join(c *gin.Context) {
	user := middleware.CurrentUser(c)

	ticket, err := h.ticketService.Join(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticket})
}

func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req models.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	ticket, err := h.ticketService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticket})
}

func (h *TicketHandler) ListMine(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page, limit := pageParams(c)

	tickets, err := h.redisService.ListTicketsByCreator(user.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondList(c, tickets)
}

func (h *TicketHandler) ListUnassigned(c *gin.Context) {
	page, limit := pageParams(c)

	tickets, err := h.redisService.ListUnassignedTickets(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondList(c, tickets)
}

func (h *TicketHandler) ListAssigned(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page, limit := pageParams(c)

	tickets, err := h.redisService.ListTicketsByAdmin(user.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondList(c, tickets)
}

func (h *TicketHandler) ListAll(c *gin.Context) {
	page, limit := pageParams(c)

	tickets, err := h.redisService.ListAllTickets(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondList(c, tickets)
}

func (h *TicketHandler) respondList(c *gin.Context, tickets []*models.Ticket) {
	views := h.ticketService.Annotate(tickets)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tickets": views,
		"count":   len(views),
	})
}
