package models

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusClosed     TicketStatus = "Closed"
)

type TicketType string

const (
	TicketTypeClient       TicketType = "Client Ticket"
	TicketTypeSellerIssue  TicketType = "Seller Issue"
	TicketTypePayoutIssue  TicketType = "Payout Issue"
	TicketTypeListingIssue TicketType = "Listing Issue"
)

func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

func ValidTicketType(t TicketType) bool {
	switch t {
	case TicketTypeClient, TicketTypeSellerIssue, TicketTypePayoutIssue, TicketTypeListingIssue:
		return true
	}
	return false
}

type Ticket struct {
	ID            string       `json:"id" redis:"id"`
	CreatorID     string       `json:"creator_id" redis:"creator_id"`
	Type          TicketType   `json:"type" redis:"type"`
	Subject       string       `json:"subject" redis:"subject"`
	Status        TicketStatus `json:"status" redis:"status"`
	AssignedAdmin string       `json:"assigned_admin,omitempty" redis:"assigned_admin"`
	ChatID        string       `json:"chat_id" redis:"chat_id"`
	LastActivity  int64        `json:"last_activity" redis:"last_activity"`
	CreatedAt     int64        `json:"created_at" redis:"created_at"`
}

// CreatorType derives whether the ticket came from a client or a
// seller, based on the ticket type.
func (t *Ticket) CreatorType() string {
	if t.Type == TicketTypeClient {
		return "client"
	}
	return "seller"
}

// TicketView annotates a ticket for listing responses.
type TicketView struct {
	Ticket
	CreatorType     string `json:"creator_type"`
	CreatorUsername string `json:"creator_username,omitempty"`
}
