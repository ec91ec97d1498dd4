package models

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type ReviewVerdict string

const (
	ReviewPositive ReviewVerdict = "positive"
	ReviewNegative ReviewVerdict = "negative"
)

type Order struct {
	ID        string      `json:"id" redis:"id"`
	AccountID string      `json:"account_id" redis:"account_id"`
	ClientID  string      `json:"client_id" redis:"client_id"`
	SellerID  string      `json:"seller_id" redis:"seller_id"`
	Price     int64       `json:"price" redis:"price"`
	Game      string      `json:"game" redis:"game"`
	Status    OrderStatus `json:"status" redis:"status"`

	Review        ReviewVerdict `json:"review,omitempty" redis:"review"`
	ReviewMessage string        `json:"review_message,omitempty" redis:"review_message"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

// OrderSummary is the admin/seller listing view: the order joined with
// display fields from the account and the two users.
type OrderSummary struct {
	Order
	AccountTitle   string `json:"account_title"`
	ClientUsername string `json:"client_username"`
	SellerUsername string `json:"seller_username"`
	GameLabel      string `json:"game_label"`
	PriceDisplay   string `json:"price_display"`
	DateDisplay    string `json:"date_display"`
}
