package models_test

import (
	"strings"
	"testing"

	"gamemarket-backend/internal/models"
)

func TestChatValidate(t *testing.T) {
	chat := &models.Chat{
		ID:       models.GenerateChatID(),
		SenderID: "usr_seller",
		OrderID:  "ord_1",
	}
	if err := chat.Validate(); err != nil {
		t.Errorf("order-scoped chat should be valid: %v", err)
	}

	chat.TicketID = "tkt_1"
	if err := chat.Validate(); err == nil {
		t.Error("chat with both order and ticket should fail validation")
	}

	chat.OrderID = ""
	chat.TicketID = ""
	if err := chat.Validate(); err == nil {
		t.Error("chat with neither order nor ticket should fail validation")
	}

	chat.TicketID = "tkt_1"
	chat.SenderID = ""
	if err := chat.Validate(); err == nil {
		t.Error("chat without sender should fail validation")
	}
}

func TestChatParticipants(t *testing.T) {
	chat := &models.Chat{
		SenderID:   "usr_a",
		ReceiverID: "usr_b",
		OrderID:    "ord_1",
	}

	if !chat.IsParticipant("usr_a") || !chat.IsParticipant("usr_b") {
		t.Error("both sender and receiver should be participants")
	}
	if chat.IsParticipant("usr_c") {
		t.Error("stranger should not be a participant")
	}

	if got := chat.OtherParticipant("usr_a"); got != "usr_b" {
		t.Errorf("expected usr_b, got %s", got)
	}
	if got := chat.OtherParticipant("usr_c"); got != "" {
		t.Errorf("non-participant should have no counterpart, got %s", got)
	}

	// Ticket chat before an admin joins.
	open := &models.Chat{SenderID: "usr_a", TicketID: "tkt_1"}
	if got := open.OtherParticipant("usr_a"); got != "" {
		t.Errorf("unclaimed ticket chat has no counterpart, got %s", got)
	}
}

func TestChatSummaryUnread(t *testing.T) {
	chat := &models.Chat{
		ID:         "chat_1",
		SenderID:   "usr_a",
		ReceiverID: "usr_b",
		OrderID:    "ord_1",
		Messages: []models.Message{
			{SenderID: "usr_a", Content: "hi", Read: true},
			{SenderID: "usr_b", Content: "hello"},
			{SenderID: "usr_b", Content: "you there?"},
			{SenderID: "usr_a", Content: "yes"},
		},
	}

	summary := chat.Summary("usr_a")
	if summary.Unread != 2 {
		t.Errorf("expected 2 unread for usr_a, got %d", summary.Unread)
	}

	summary = chat.Summary("usr_b")
	if summary.Unread != 1 {
		t.Errorf("expected 1 unread for usr_b, got %d", summary.Unread)
	}
}

func TestSlugify(t *testing.T) {
	slug := models.Slugify("Immortal 3 Valorant Account!! EU")
	if !strings.HasPrefix(slug, "immortal-3-valorant-account-eu-") {
		t.Errorf("unexpected slug: %s", slug)
	}
	if strings.ContainsAny(slug, " !?") {
		t.Errorf("slug contains illegal characters: %s", slug)
	}

	a := models.Slugify("Same Title")
	b := models.Slugify("Same Title")
	if a == b {
		t.Error("slugs for identical titles should still differ")
	}

	if models.Slugify("!!!") == "" {
		t.Error("degenerate title should still produce a slug")
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := models.FormatCurrency(5000); got != "$50.00" {
		t.Errorf("expected $50.00, got %s", got)
	}
	if got := models.FormatCurrency(199); got != "$1.99" {
		t.Errorf("expected $1.99, got %s", got)
	}
}

func TestSystemMessage(t *testing.T) {
	msg := models.NewSystemMessage("Order status changed")
	if !msg.IsSystem {
		t.Error("system message should carry the system flag")
	}
	if msg.SenderID != "system" {
		t.Errorf("expected system sender, got %s", msg.SenderID)
	}
	if msg.ID == "" || msg.CreatedAt == 0 {
		t.Error("system message should have an ID and timestamp")
	}
}

func TestWalletMutationValidate(t *testing.T) {
	req := &models.WalletMutationRequest{Amount: 100}
	if err := req.Validate(); err != nil {
		t.Errorf("positive amount should validate: %v", err)
	}

	req.Amount = 0
	if err := req.Validate(); err == nil {
		t.Error("zero amount should fail validation")
	}

	req.Amount = -50
	if err := req.Validate(); err == nil {
		t.Error("negative amount should fail validation")
	}
}

func TestTicketEnums(t *testing.T) {
	if !models.ValidTicketStatus(models.TicketStatusClosed) {
		t.Error("Closed should be a valid status")
	}
	if models.ValidTicketStatus("Archived") {
		t.Error("Archived is not a valid status")
	}

	ticket := &models.Ticket{Type: models.TicketTypeClient}
	if ticket.CreatorType() != "client" {
		t.Errorf("expected client, got %s", ticket.CreatorType())
	}
	ticket.Type = models.TicketTypePayoutIssue
	if ticket.CreatorType() != "seller" {
		t.Errorf("expected seller, got %s", ticket.CreatorType())
	}
}
