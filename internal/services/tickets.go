package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gamemarket-backend/internal/models"
)

// TicketService routes support requests to admins, each ticket backed
// by a companion chat.
type TicketService struct {
	redisService *RedisService
	chatService  *ChatService
}

func NewTicketService(redisService *RedisService, chatService *ChatService) *TicketService {
	return &TicketService{
		redisService: redisService,
		chatService:  chatService,
	}
}

// Create persists the ticket, then its companion chat (receiver empty
// until an admin joins) seeded with the opening message, and links the
// chat back onto the ticket.
func (ts *TicketService) Create(ctx context.Context, creator *models.User, req *models.CreateTicketRequest) (*models.Ticket, error) {
	if !models.ValidTicketType(req.Type) {
		return nil, fmt.Errorf("invalid ticket type: %s", req.Type)
	}

	now := time.Now().Unix()
	ticket := &models.Ticket{
		ID:           models.GenerateTicketID(),
		CreatorID:    creator.ID,
		Type:         req.Type,
		Subject:      req.Subject,
		Status:       models.TicketStatusOpen,
		LastActivity: now,
		CreatedAt:    now,
	}

	if err := ts.redisService.SaveTicket(ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %v", err)
	}

	chat := &models.Chat{
		ID:           models.GenerateChatID(),
		SenderID:     creator.ID,
		TicketID:     ticket.ID,
		Messages:     []models.Message{},
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
	}

	chat, _, err := ts.redisService.CreateChat(chat)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket chat: %v", err)
	}

	opening := models.Message{
		ID:        models.GenerateMessageID(),
		SenderID:  creator.ID,
		Content:   req.Message,
		CreatedAt: now,
	}
	if err := ts.redisService.AppendMessage(chat.ID, opening, creator.ID); err != nil {
		zap.L().Warn("Failed to seed ticket chat",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}

	ticket.ChatID = chat.ID
	if err := ts.redisService.SaveTicket(ticket); err != nil {
		return nil, fmt.Errorf("failed to link ticket chat: %v", err)
	}

	return ticket, nil
}

// Join assigns the ticket to an admin; fails with ErrTicketAssigned if
// someone else got there first. The companion chat's receiver becomes
// the admin.
func (ts *TicketService) Join(ctx context.Context, ticketID string, admin *models.User) (*models.Ticket, error) {
	ticket, err := ts.redisService.AssignTicket(ticketID, admin.ID)
	if err != nil {
		return nil, err
	}

	if ticket.ChatID != "" {
		if _, err := ts.redisService.SetChatReceiver(ticket.ChatID, admin.ID); err != nil {
			zap.L().Warn("Failed to set ticket chat receiver",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
		if err := ts.chatService.AddSystemMessage(ticket.ChatID, fmt.Sprintf("%s joined the ticket", admin.Username)); err != nil {
			zap.L().Warn("Failed to narrate ticket join",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}

	return ticket, nil
}

// UpdateStatus toggles the ticket through the fixed enum. Transitions
// into or out of Closed are narrated into the companion chat, naming
// the actor.
func (ts *TicketService) UpdateStatus(ctx context.Context, ticketID string, status models.TicketStatus, actor *models.User) (*models.Ticket, error) {
	if !models.ValidTicketStatus(status) {
		return nil, fmt.Errorf("invalid ticket status: %s", status)
	}

	ticket, err := ts.redisService.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == status {
		return ticket, nil
	}

	prev := ticket.Status
	ticket.Status = status
	ticket.LastActivity = time.Now().Unix()
	if err := ts.redisService.SaveTicket(ticket); err != nil {
		return nil, err
	}

	closing := status == models.TicketStatusClosed
	reopening := prev == models.TicketStatusClosed
	if (closing || reopening) && ticket.ChatID != "" {
		verb := "closed"
		if reopening {
			verb = "reopened"
		}
		content := fmt.Sprintf("Ticket %s by %s", verb, actor.Username)
		if err := ts.chatService.AddSystemMessage(ticket.ChatID, content); err != nil {
			zap.L().Warn("Failed to narrate ticket status",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}

	return ticket, nil
}

// Annotate decorates tickets with the derived creator type and the
// creator's username for listing responses.
func (ts *TicketService) Annotate(tickets []*models.Ticket) []models.TicketView {
	views := make([]models.TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		views = append(views, models.TicketView{
			Ticket:          *ticket,
			CreatorType:     ticket.CreatorType(),
			CreatorUsername: ts.redisService.Username(ticket.CreatorID),
		})
	}
	return views
}
