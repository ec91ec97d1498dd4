package services_test

import (
	"context"
	"errors"
	"testing"

	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

func newTestTicketService(redisService *services.RedisService) *services.TicketService {
	chatService := services.NewChatService(redisService)
	return services.NewTicketService(redisService, chatService)
}

func TestTicketCreateAndJoin(t *testing.T) {
	redisService := setupTestRedis(t)
	ticketService := newTestTicketService(redisService)
	ctx := context.Background()

	creator := createTestUser(t, redisService, "ticket-creator-1", models.RoleUser)
	admin := createTestUser(t, redisService, "ticket-admin-1", models.RoleAdmin)

	ticket, err := ticketService.Create(ctx, creator, &models.CreateTicketRequest{
		Type:    models.TicketTypeClient,
		Subject: "Cannot log into purchased account",
		Message: "The credentials I received do not work.",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteTicket(ticket.ID) })
	t.Cleanup(func() { redisService.DeleteChat(ticket.ChatID) })

	if ticket.Status != models.TicketStatusOpen {
		t.Errorf("ticket status = %s, want Open", ticket.Status)
	}
	if ticket.AssignedAdmin != "" {
		t.Errorf("fresh ticket should be unassigned, got %s", ticket.AssignedAdmin)
	}
	if ticket.ChatID == "" {
		t.Fatal("ticket has no companion chat")
	}

	// The companion chat carries the opening message and no receiver
	// until an admin joins.
	chat, err := redisService.GetChatByTicketID(ticket.ID)
	if err != nil {
		t.Fatalf("ticket chat lookup failed: %v", err)
	}
	if chat.ReceiverID != "" {
		t.Errorf("ticket chat receiver = %s before join, want empty", chat.ReceiverID)
	}
	if len(chat.Messages) != 1 || chat.Messages[0].Content != "The credentials I received do not work." {
		t.Errorf("ticket chat not seeded with the opening message: %+v", chat.Messages)
	}

	joined, err := ticketService.Join(ctx, ticket.ID, admin)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if joined.AssignedAdmin != admin.ID {
		t.Errorf("assigned admin = %s, want %s", joined.AssignedAdmin, admin.ID)
	}
	if joined.Status != models.TicketStatusInProgress {
		t.Errorf("ticket status after join = %s, want In Progress", joined.Status)
	}

	chat, err = redisService.GetChat(ticket.ChatID)
	if err != nil {
		t.Fatalf("failed to reload ticket chat: %v", err)
	}
	if chat.ReceiverID != admin.ID {
		t.Errorf("chat receiver after join = %s, want %s", chat.ReceiverID, admin.ID)
	}
	last := chat.Messages[len(chat.Messages)-1]
	if !last.IsSystem {
		t.Errorf("join should be narrated with a system message, got %+v", last)
	}
}

func TestTicketJoinRace(t *testing.T) {
	redisService := setupTestRedis(t)
	ticketService := newTestTicketService(redisService)
	ctx := context.Background()

	creator := createTestUser(t, redisService, "ticket-creator-2", models.RoleSeller)
	adminA := createTestUser(t, redisService, "ticket-admin-2a", models.RoleAdmin)
	adminB := createTestUser(t, redisService, "ticket-admin-2b", models.RoleAdmin)

	ticket, err := ticketService.Create(ctx, creator, &models.CreateTicketRequest{
		Type:    models.TicketTypePayoutIssue,
		Subject: "Payout not received",
		Message: "My last payout is missing.",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteTicket(ticket.ID) })
	t.Cleanup(func() { redisService.DeleteChat(ticket.ChatID) })

	if _, err := ticketService.Join(ctx, ticket.ID, adminA); err != nil {
		t.Fatalf("first join failed: %v", err)
	}

	// Only one admin can claim a ticket.
	_, err = ticketService.Join(ctx, ticket.ID, adminB)
	if !errors.Is(err, services.ErrTicketAssigned) {
		t.Fatalf("second join: expected ErrTicketAssigned, got %v", err)
	}

	stored, err := redisService.GetTicket(ticket.ID)
	if err != nil {
		t.Fatalf("failed to reload ticket: %v", err)
	}
	if stored.AssignedAdmin != adminA.ID {
		t.Errorf("assigned admin = %s, want the first claimer %s", stored.AssignedAdmin, adminA.ID)
	}
}

func TestTicketStatusNarration(t *testing.T) {
	redisService := setupTestRedis(t)
	ticketService := newTestTicketService(redisService)
	ctx := context.Background()

	creator := createTestUser(t, redisService, "ticket-creator-3", models.RoleUser)
	admin := createTestUser(t, redisService, "ticket-admin-3", models.RoleAdmin)

	ticket, err := ticketService.Create(ctx, creator, &models.CreateTicketRequest{
		Type:    models.TicketTypeClient,
		Subject: "Question about refunds",
		Message: "How long does a refund take?",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteTicket(ticket.ID) })
	t.Cleanup(func() { redisService.DeleteChat(ticket.ChatID) })

	closed, err := ticketService.UpdateStatus(ctx, ticket.ID, models.TicketStatusClosed, admin)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.Status != models.TicketStatusClosed {
		t.Errorf("ticket status = %s, want Closed", closed.Status)
	}

	chat, err := redisService.GetChat(ticket.ChatID)
	if err != nil {
		t.Fatalf("failed to reload chat: %v", err)
	}
	last := chat.Messages[len(chat.Messages)-1]
	if !last.IsSystem || last.Content != "Ticket closed by "+admin.Username {
		t.Errorf("close narration = %+v, want system message naming the actor", last)
	}

	if _, err := ticketService.UpdateStatus(ctx, ticket.ID, models.TicketStatusOpen, creator); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	chat, err = redisService.GetChat(ticket.ChatID)
	if err != nil {
		t.Fatalf("failed to reload chat: %v", err)
	}
	last = chat.Messages[len(chat.Messages)-1]
	if !last.IsSystem || last.Content != "Ticket reopened by "+creator.Username {
		t.Errorf("reopen narration = %+v, want system message naming the actor", last)
	}
}

func TestTicketUnassignedListing(t *testing.T) {
	redisService := setupTestRedis(t)
	ticketService := newTestTicketService(redisService)
	ctx := context.Background()

	creator := createTestUser(t, redisService, "ticket-creator-4", models.RoleUser)
	admin := createTestUser(t, redisService, "ticket-admin-4", models.RoleAdmin)

	ticket, err := ticketService.Create(ctx, creator, &models.CreateTicketRequest{
		Type:    models.TicketTypeListingIssue,
		Subject: "Listing stuck in draft",
		Message: "Publishing does nothing.",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteTicket(ticket.ID) })
	t.Cleanup(func() { redisService.DeleteChat(ticket.ChatID) })

	unassigned, err := redisService.ListUnassignedTickets(1, 100)
	if err != nil {
		t.Fatalf("failed to list unassigned tickets: %v", err)
	}
	if !containsTicket(unassigned, ticket.ID) {
		t.Error("fresh ticket missing from the unassigned queue")
	}

	if _, err := ticketService.Join(ctx, ticket.ID, admin); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	unassigned, err = redisService.ListUnassignedTickets(1, 100)
	if err != nil {
		t.Fatalf("failed to list unassigned tickets: %v", err)
	}
	if containsTicket(unassigned, ticket.ID) {
		t.Error("claimed ticket still in the unassigned queue")
	}

	mine, err := redisService.ListTicketsByAdmin(admin.ID, 1, 100)
	if err != nil {
		t.Fatalf("failed to list admin tickets: %v", err)
	}
	if !containsTicket(mine, ticket.ID) {
		t.Error("claimed ticket missing from the admin's queue")
	}
}

func containsTicket(tickets []*models.Ticket, id string) bool {
	for _, ticket := range tickets {
		if ticket.ID == id {
			return true
		}
	}
	return false
}
