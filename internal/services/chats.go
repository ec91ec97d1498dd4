package services

import (
	"context"
	"fmt"
	"time"

	"gamemarket-backend/internal/models"
)

// ChatService owns chat authorization and the message lifecycle.
//
// Posting policy: the sender, the receiver, and admins may all post.
type ChatService struct {
	redisService *RedisService
}

func NewChatService(redisService *RedisService) *ChatService {
	return &ChatService{redisService: redisService}
}

// CreateChat provisions a chat for an order or ticket on behalf of
// user. Order chats always carry seller as sender and buyer as
// receiver, whichever side asked for it. If the scope already has a
// chat, that chat is returned.
func (cs *ChatService) CreateChat(ctx context.Context, user *models.User, req *models.CreateChatRequest) (*models.Chat, bool, error) {
	if req.OrderID != "" && req.TicketID != "" {
		return nil, false, fmt.Errorf("chat cannot reference both an order and a ticket")
	}

	var chat *models.Chat
	switch {
	case req.OrderID != "":
		order, err := cs.redisService.GetOrder(req.OrderID)
		if err != nil {
			return nil, false, err
		}
		if !user.IsAdmin() && user.ID != order.ClientID && user.ID != order.SellerID {
			return nil, false, fmt.Errorf("not a participant of this order: %w", ErrForbidden)
		}
		chat = cs.newOrderChat(order)

	case req.TicketID != "":
		ticket, err := cs.redisService.GetTicket(req.TicketID)
		if err != nil {
			return nil, false, err
		}
		if !user.IsAdmin() && user.ID != ticket.CreatorID {
			return nil, false, fmt.Errorf("not the ticket creator: %w", ErrForbidden)
		}
		now := time.Now().Unix()
		chat = &models.Chat{
			ID:           models.GenerateChatID(),
			SenderID:     ticket.CreatorID,
			ReceiverID:   ticket.AssignedAdmin,
			TicketID:     ticket.ID,
			Messages:     []models.Message{},
			LastActivity: now,
			IsActive:     true,
			CreatedAt:    now,
		}

	default:
		return nil, false, fmt.Errorf("chat must reference an order or a ticket")
	}

	chat, created, err := cs.redisService.CreateChat(chat)
	if err != nil {
		return nil, false, err
	}

	if created && req.Message != "" {
		if _, err := cs.appendFrom(chat, user.ID, req.Message, false); err != nil {
			return nil, created, err
		}
	}

	return chat, created, nil
}

func (cs *ChatService) newOrderChat(order *models.Order) *models.Chat {
	now := time.Now().Unix()
	return &models.Chat{
		ID:           models.GenerateChatID(),
		SenderID:     order.SellerID,
		ReceiverID:   order.ClientID,
		OrderID:      order.ID,
		Messages:     []models.Message{},
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
	}
}

// EnsureOrderChat idempotently provisions the buyer/seller chat for a
// fresh order, seeded with a system message. Safe to call more than
// once per order.
func (cs *ChatService) EnsureOrderChat(order *models.Order) (*models.Chat, error) {
	chat, created, err := cs.redisService.CreateChat(cs.newOrderChat(order))
	if err != nil {
		return nil, err
	}
	if !created {
		return chat, nil
	}

	msg := models.NewSystemMessage(fmt.Sprintf("Order %s created. Use this chat to arrange the handover.", order.ID))
	if err := cs.redisService.AppendMessage(chat.ID, msg, chat.SenderID, chat.ReceiverID); err != nil {
		return nil, err
	}
	chat.Messages = append(chat.Messages, msg)
	chat.LastActivity = msg.CreatedAt
	return chat, nil
}

// GetAuthorized returns the chat when user is a participant or an
// admin, ErrForbidden otherwise. No side effects.
func (cs *ChatService) GetAuthorized(ctx context.Context, chatID string, user *models.User) (*models.Chat, error) {
	chat, err := cs.redisService.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && !chat.IsParticipant(user.ID) {
		return nil, fmt.Errorf("not a participant: %w", ErrForbidden)
	}
	return chat, nil
}

// AddMessage appends a message from user to the chat. Participants and
// admins may post.
func (cs *ChatService) AddMessage(ctx context.Context, chatID string, user *models.User, content string) (*models.Chat, *models.Message, error) {
	chat, err := cs.GetAuthorized(ctx, chatID, user)
	if err != nil {
		return nil, nil, err
	}

	msg, err := cs.appendFrom(chat, user.ID, content, false)
	if err != nil {
		return nil, nil, err
	}
	return chat, msg, nil
}

// AddSystemMessage narrates a state change into the chat.
func (cs *ChatService) AddSystemMessage(chatID, content string) error {
	chat, err := cs.redisService.GetChat(chatID)
	if err != nil {
		return err
	}
	msg := models.NewSystemMessage(content)
	return cs.redisService.AppendMessage(chat.ID, msg, chat.SenderID, chat.ReceiverID)
}

func (cs *ChatService) appendFrom(chat *models.Chat, senderID, content string, system bool) (*models.Message, error) {
	msg := models.Message{
		ID:        models.GenerateMessageID(),
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().Unix(),
		IsSystem:  system,
	}
	if err := cs.redisService.AppendMessage(chat.ID, msg, chat.SenderID, chat.ReceiverID); err != nil {
		return nil, err
	}
	chat.Messages = append(chat.Messages, msg)
	if msg.CreatedAt > chat.LastActivity {
		chat.LastActivity = msg.CreatedAt
	}
	return &msg, nil
}

// MarkAllRead flips the read flag on every message not authored by
// user. The flip happens inside a single script, so it can never
// clobber a message appended while the caller held a stale copy.
// Returns false without writing when nothing changed.
func (cs *ChatService) MarkAllRead(ctx context.Context, chatID string, user *models.User) (bool, error) {
	chat, err := cs.GetAuthorized(ctx, chatID, user)
	if err != nil {
		return false, err
	}
	return cs.redisService.MarkMessagesRead(chat.ID, user.ID)
}

// SummariesForUser lists the user's chats newest-activity-first with
// the message payloads stripped.
func (cs *ChatService) SummariesForUser(ctx context.Context, userID string, page, limit int64) ([]models.ChatSummary, error) {
	chats, err := cs.redisService.ChatsForUser(userID, page, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, chat.Summary(userID))
	}
	return summaries, nil
}

// ResolveForJoin finds a chat by its own ID or by an order ID, lazily
// provisioning the order chat when the order exists but its chat does
// not yet. Used by the realtime joinChat event.
func (cs *ChatService) ResolveForJoin(ctx context.Context, id string, user *models.User) (*models.Chat, error) {
	chat, err := cs.redisService.GetChat(id)
	if err == nil {
		if !user.IsAdmin() && !chat.IsParticipant(user.ID) {
			return nil, fmt.Errorf("not a participant: %w", ErrForbidden)
		}
		return chat, nil
	}

	order, err := cs.redisService.GetOrder(id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !user.IsAdmin() && user.ID != order.ClientID && user.ID != order.SellerID {
		return nil, fmt.Errorf("not a participant of this order: %w", ErrForbidden)
	}
	return cs.EnsureOrderChat(order)
}
