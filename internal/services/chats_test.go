package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

func createTestOrder(t *testing.T, redisService *services.RedisService, clientID, sellerID string) *models.Order {
	t.Helper()

	now := time.Now().Unix()
	order := &models.Order{
		ID:        models.GenerateOrderID(),
		AccountID: models.GenerateAccountID(),
		ClientID:  clientID,
		SellerID:  sellerID,
		Price:     5000,
		Game:      "valorant",
		Status:    models.OrderStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := redisService.SaveOrder(order); err != nil {
		t.Fatalf("failed to create test order: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteOrder(order.ID) })

	return order
}

func TestCreateChatIdempotentPerOrder(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-1", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-1", models.RoleUser)
	order := createTestOrder(t, redisService, buyer.ID, seller.ID)

	first, created, err := chatService.CreateChat(ctx, buyer, &models.CreateChatRequest{OrderID: order.ID})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(first.ID) })
	if !created {
		t.Error("first create should report created=true")
	}
	if first.SenderID != seller.ID || first.ReceiverID != buyer.ID {
		t.Errorf("order chat participants = sender %s / receiver %s, want seller as sender and buyer as receiver",
			first.SenderID, first.ReceiverID)
	}

	// A second request for the same order, from either side, lands on
	// the same chat.
	second, created, err := chatService.CreateChat(ctx, seller, &models.CreateChatRequest{OrderID: order.ID})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if created {
		t.Error("second create should report created=false")
	}
	if second.ID != first.ID {
		t.Errorf("second create returned chat %s, want existing chat %s", second.ID, first.ID)
	}

	byOrder, err := redisService.GetChatByOrderID(order.ID)
	if err != nil {
		t.Fatalf("lookup by order failed: %v", err)
	}
	if byOrder.ID != first.ID {
		t.Errorf("order index points at %s, want %s", byOrder.ID, first.ID)
	}
}

func TestCreateChatRejectsOutsider(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-2", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-2", models.RoleUser)
	outsider := createTestUser(t, redisService, "chat-outsider-2", models.RoleUser)
	order := createTestOrder(t, redisService, buyer.ID, seller.ID)

	_, _, err := chatService.CreateChat(ctx, outsider, &models.CreateChatRequest{OrderID: order.ID})
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for outsider, got %v", err)
	}
}

func TestAppendMessageOrderingAndActivity(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-3", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-3", models.RoleUser)
	order := createTestOrder(t, redisService, buyer.ID, seller.ID)

	chat, err := chatService.EnsureOrderChat(order)
	if err != nil {
		t.Fatalf("failed to provision order chat: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(chat.ID) })

	if len(chat.Messages) != 1 || !chat.Messages[0].IsSystem {
		t.Fatalf("fresh order chat should hold exactly one system message, got %d messages", len(chat.Messages))
	}

	_, msg, err := chatService.AddMessage(ctx, chat.ID, buyer, "When can you hand over the login?")
	if err != nil {
		t.Fatalf("failed to post message: %v", err)
	}

	stored, err := redisService.GetChat(chat.ID)
	if err != nil {
		t.Fatalf("failed to reload chat: %v", err)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(stored.Messages))
	}
	last := stored.Messages[len(stored.Messages)-1]
	if last.ID != msg.ID {
		t.Errorf("appended message is not last: got %s, want %s", last.ID, msg.ID)
	}
	if stored.LastActivity < msg.CreatedAt {
		t.Errorf("last_activity %d older than newest message %d", stored.LastActivity, msg.CreatedAt)
	}
}

func TestGetAuthorizedRejectsNonParticipant(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-4", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-4", models.RoleUser)
	outsider := createTestUser(t, redisService, "chat-outsider-4", models.RoleUser)
	admin := createTestUser(t, redisService, "chat-admin-4", models.RoleAdmin)
	order := createTestOrder(t, redisService, buyer.ID, seller.ID)

	chat, err := chatService.EnsureOrderChat(order)
	if err != nil {
		t.Fatalf("failed to provision order chat: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(chat.ID) })

	if _, err := chatService.GetAuthorized(ctx, chat.ID, outsider); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("outsider access: expected ErrForbidden, got %v", err)
	}
	if _, err := chatService.GetAuthorized(ctx, chat.ID, admin); err != nil {
		t.Errorf("admin access should be allowed, got %v", err)
	}
	if _, err := chatService.GetAuthorized(ctx, chat.ID, buyer); err != nil {
		t.Errorf("buyer access should be allowed, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-5", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-5", models.RoleUser)
	order := createTestOrder(t, redisService, buyer.ID, seller.ID)

	chat, err := chatService.EnsureOrderChat(order)
	if err != nil {
		t.Fatalf("failed to provision order chat: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(chat.ID) })

	if _, _, err := chatService.AddMessage(ctx, chat.ID, seller, "Ready when you are"); err != nil {
		t.Fatalf("failed to post message: %v", err)
	}

	changed, err := chatService.MarkAllRead(ctx, chat.ID, buyer)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if !changed {
		t.Error("expected unread messages to be marked")
	}

	stored, err := redisService.GetChat(chat.ID)
	if err != nil {
		t.Fatalf("failed to reload chat: %v", err)
	}
	if stored.Summary(buyer.ID).Unread != 0 {
		t.Errorf("unread count = %d after marking, want 0", stored.Summary(buyer.ID).Unread)
	}

	// Second pass has nothing left to flip.
	changed, err = chatService.MarkAllRead(ctx, chat.ID, buyer)
	if err != nil {
		t.Fatalf("second mark read failed: %v", err)
	}
	if changed {
		t.Error("second mark read should be a no-op")
	}
}

func TestMarkReadKeepsConcurrentAppend(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-7", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-7", models.RoleUser)
	order := createTestOrder(t, redisService, buyer.ID, seller.ID)

	chat, err := chatService.EnsureOrderChat(order)
	if err != nil {
		t.Fatalf("failed to provision order chat: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(chat.ID) })

	if _, _, err := chatService.AddMessage(ctx, chat.ID, seller, "first"); err != nil {
		t.Fatalf("failed to post: %v", err)
	}

	// The reader holds a copy loaded before the next message lands. The
	// read-marking write must not rewrite the document from it.
	if _, err := redisService.GetChat(chat.ID); err != nil {
		t.Fatalf("failed to load chat: %v", err)
	}
	_, late, err := chatService.AddMessage(ctx, chat.ID, seller, "second")
	if err != nil {
		t.Fatalf("failed to post: %v", err)
	}

	changed, err := redisService.MarkMessagesRead(chat.ID, buyer.ID)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if !changed {
		t.Error("expected unread messages to be marked")
	}

	stored, err := redisService.GetChat(chat.ID)
	if err != nil {
		t.Fatalf("failed to reload chat: %v", err)
	}
	found := false
	for _, m := range stored.Messages {
		if m.ID == late.ID {
			found = true
			if !m.Read {
				t.Error("late message should be marked read")
			}
		}
	}
	if !found {
		t.Fatal("message appended during read-marking was lost")
	}
	if stored.Summary(buyer.ID).Unread != 0 {
		t.Errorf("unread count = %d after marking, want 0", stored.Summary(buyer.ID).Unread)
	}
}

func TestSetChatReceiverKeepsMessages(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-8", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-8", models.RoleUser)
	admin := createTestUser(t, redisService, "chat-admin-8", models.RoleAdmin)
	order := createTestOrder(t, redisService, buyer.ID, seller.ID)

	chat, err := chatService.EnsureOrderChat(order)
	if err != nil {
		t.Fatalf("failed to provision order chat: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(chat.ID) })

	if _, _, err := chatService.AddMessage(ctx, chat.ID, buyer, "hello"); err != nil {
		t.Fatalf("failed to post: %v", err)
	}
	before, err := redisService.GetChat(chat.ID)
	if err != nil {
		t.Fatalf("failed to load chat: %v", err)
	}

	updated, err := redisService.SetChatReceiver(chat.ID, admin.ID)
	if err != nil {
		t.Fatalf("set receiver failed: %v", err)
	}
	if updated.ReceiverID != admin.ID {
		t.Errorf("receiver = %s, want %s", updated.ReceiverID, admin.ID)
	}

	stored, err := redisService.GetChat(chat.ID)
	if err != nil {
		t.Fatalf("failed to reload chat: %v", err)
	}
	if len(stored.Messages) != len(before.Messages) {
		t.Errorf("message count changed across receiver swap: %d -> %d",
			len(before.Messages), len(stored.Messages))
	}
}

func TestChatsForUserRecency(t *testing.T) {
	redisService := setupTestRedis(t)
	chatService := services.NewChatService(redisService)
	ctx := context.Background()

	seller := createTestUser(t, redisService, "chat-seller-6", models.RoleSeller)
	buyer := createTestUser(t, redisService, "chat-buyer-6", models.RoleUser)

	orderA := createTestOrder(t, redisService, buyer.ID, seller.ID)
	orderB := createTestOrder(t, redisService, buyer.ID, seller.ID)

	chatA, err := chatService.EnsureOrderChat(orderA)
	if err != nil {
		t.Fatalf("failed to provision chat A: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(chatA.ID) })

	chatB, err := chatService.EnsureOrderChat(orderB)
	if err != nil {
		t.Fatalf("failed to provision chat B: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteChat(chatB.ID) })

	// Posting into A bumps it ahead of B. The ZSET score is a unix
	// second, so force a distinct score before posting.
	time.Sleep(1100 * time.Millisecond)
	if _, _, err := chatService.AddMessage(ctx, chatA.ID, buyer, "bump"); err != nil {
		t.Fatalf("failed to post: %v", err)
	}

	summaries, err := chatService.SummariesForUser(ctx, buyer.ID, 1, 10)
	if err != nil {
		t.Fatalf("failed to list chats: %v", err)
	}
	if len(summaries) < 2 {
		t.Fatalf("expected at least 2 chats, got %d", len(summaries))
	}
	if summaries[0].ID != chatA.ID {
		t.Errorf("most recent chat = %s, want %s", summaries[0].ID, chatA.ID)
	}
}
