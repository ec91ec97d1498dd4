package models

import "fmt"

type Message struct {
	ID        string `json:"id" redis:"id"`
	SenderID  string `json:"sender_id" redis:"sender_id"`
	Content   string `json:"content" redis:"content"`
	CreatedAt int64  `json:"created_at" redis:"created_at"`
	Read      bool   `json:"read" redis:"read"`
	IsSystem  bool   `json:"is_system,omitempty" redis:"is_system"`
}

// Chat is a threaded message list scoped to exactly one order or one
// ticket. ReceiverID is empty on a ticket chat until an admin joins.
type Chat struct {
	ID         string    `json:"id" redis:"id"`
	SenderID   string    `json:"sender_id" redis:"sender_id"`
	ReceiverID string    `json:"receiver_id,omitempty" redis:"receiver_id"`
	OrderID    string    `json:"order_id,omitempty" redis:"order_id"`
	TicketID   string    `json:"ticket_id,omitempty" redis:"ticket_id"`
	Messages   []Message `json:"messages" redis:"messages"`

	LastActivity int64 `json:"last_activity" redis:"last_activity"`
	IsActive     bool  `json:"is_active" redis:"is_active"`
	CreatedAt    int64 `json:"created_at" redis:"created_at"`
}

// Validate enforces the scope invariant: exactly one of OrderID and
// TicketID must be set.
func (c *Chat) Validate() error {
	if c.OrderID != "" && c.TicketID != "" {
		return fmt.Errorf("chat cannot reference both an order and a ticket")
	}
	if c.OrderID == "" && c.TicketID == "" {
		return fmt.Errorf("chat must reference an order or a ticket")
	}
	if c.SenderID == "" {
		return fmt.Errorf("chat requires a sender")
	}
	return nil
}

// IsParticipant reports whether userID is the chat's sender or receiver.
func (c *Chat) IsParticipant(userID string) bool {
	return userID == c.SenderID || (c.ReceiverID != "" && userID == c.ReceiverID)
}

// OtherParticipant returns the participant that is not userID, or ""
// when the chat has no second participant yet.
func (c *Chat) OtherParticipant(userID string) string {
	if userID == c.SenderID {
		return c.ReceiverID
	}
	if c.ReceiverID != "" && userID == c.ReceiverID {
		return c.SenderID
	}
	return ""
}

// Summary is the list-view shape: the chat without its message payload.
type ChatSummary struct {
	ID           string `json:"id"`
	SenderID     string `json:"sender_id"`
	ReceiverID   string `json:"receiver_id,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	TicketID     string `json:"ticket_id,omitempty"`
	LastActivity int64  `json:"last_activity"`
	IsActive     bool   `json:"is_active"`
	Unread       int    `json:"unread"`
}

// Summary strips the embedded messages and counts the ones userID has
// not read yet.
func (c *Chat) Summary(userID string) ChatSummary {
	unread := 0
	for _, m := range c.Messages {
		if !m.Read && m.SenderID != userID {
			unread++
		}
	}
	return ChatSummary{
		ID:           c.ID,
		SenderID:     c.SenderID,
		ReceiverID:   c.ReceiverID,
		OrderID:      c.OrderID,
		TicketID:     c.TicketID,
		LastActivity: c.LastActivity,
		IsActive:     c.IsActive,
		Unread:       unread,
	}
}
