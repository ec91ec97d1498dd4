package models

import "fmt"

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateAccountRequest struct {
	Game        string                 `json:"game" binding:"required"`
	Title       string                 `json:"title" binding:"required,min=3,max=120"`
	Description string                 `json:"description"`
	Price       int64                  `json:"price" binding:"required"`
	Credentials Credentials            `json:"credentials"`
	Attributes  map[string]interface{} `json:"attributes"`
	Gallery     []string               `json:"gallery"`
	Draft       bool                   `json:"draft"`
}

func (r *CreateAccountRequest) Validate() error {
	if r.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if len(r.Gallery) > 12 {
		return fmt.Errorf("gallery is limited to 12 images")
	}
	return nil
}

type UpdateAccountRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Price       *int64                 `json:"price"`
	Credentials *Credentials           `json:"credentials"`
	Attributes  map[string]interface{} `json:"attributes"`
	Gallery     []string               `json:"gallery"`
	Publish     bool                   `json:"publish"`
}

type CreateOrderRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Game      string `json:"game"`
}

type ReviewRequest struct {
	Verdict ReviewVerdict `json:"verdict" binding:"required"`
	Message string        `json:"message" binding:"max=1000"`
}

func (r *ReviewRequest) Validate() error {
	if r.Verdict != ReviewPositive && r.Verdict != ReviewNegative {
		return fmt.Errorf("verdict must be positive or negative")
	}
	return nil
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

type CreateChatRequest struct {
	OrderID    string `json:"order_id"`
	TicketID   string `json:"ticket_id"`
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
}

type PostMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

type CreateTicketRequest struct {
	Type    TicketType `json:"type" binding:"required"`
	Subject string     `json:"subject" binding:"required,min=3,max=200"`
	Message string     `json:"message" binding:"required,max=4000"`
}

type UpdateTicketStatusRequest struct {
	Status TicketStatus `json:"status" binding:"required"`
}

type WalletMutationRequest struct {
	Amount  int64  `json:"amount" binding:"required"`
	Message string `json:"message" binding:"max=500"`
}

func (r *WalletMutationRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}
