package models

type AccountStatus string

const (
	AccountStatusDraft      AccountStatus = "draft"
	AccountStatusActive     AccountStatus = "active"
	AccountStatusProcessing AccountStatus = "processing"
	AccountStatusSold       AccountStatus = "sold"
)

// Credentials are only included in responses for the owning seller, an
// admin, or the buyer after the account is sold.
type Credentials struct {
	Login    string `json:"login" redis:"login"`
	Password string `json:"password" redis:"password"`
}

// Account is a sellable game-login listing. One entity covers every
// supported game; the game-specific stats live in Attributes and are
// validated against the catalog entry for Game.
type Account struct {
	ID          string                 `json:"id" redis:"id"`
	Game        string                 `json:"game" redis:"game"`
	Title       string                 `json:"title" redis:"title"`
	Slug        string                 `json:"slug" redis:"slug"`
	Description string                 `json:"description" redis:"description"`
	Price       int64                  `json:"price" redis:"price"`
	Credentials Credentials            `json:"credentials,omitempty" redis:"credentials"`
	Attributes  map[string]interface{} `json:"attributes" redis:"attributes"`
	Status      AccountStatus          `json:"status" redis:"status"`
	Gallery     []string               `json:"gallery" redis:"gallery"`
	SellerID    string                 `json:"seller_id" redis:"seller_id"`
	Views       int64                  `json:"views" redis:"views"`
	CreatedAt   int64                  `json:"created_at" redis:"created_at"`
	UpdatedAt   int64                  `json:"updated_at" redis:"updated_at"`
}

// Public returns a copy safe to show to non-owners: credentials stripped.
func (a *Account) Public() Account {
	out := *a
	out.Credentials = Credentials{}
	return out
}
