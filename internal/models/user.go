package models

type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type NotificationPrefs struct {
	OrderUpdates bool `json:"order_updates" redis:"order_updates"`
	ChatMessages bool `json:"chat_messages" redis:"chat_messages"`
	Promotions   bool `json:"promotions" redis:"promotions"`
}

type User struct {
	ID           string     `json:"id" redis:"id"`
	Username     string     `json:"username" redis:"username"`
	Email        string     `json:"email" redis:"email"`
	PasswordHash string     `json:"-" redis:"password_hash"`
	Role         Role       `json:"role" redis:"role"`
	Status       UserStatus `json:"status" redis:"status"`

	// Wallet balance in cents, mutated only through the wallet scripts.
	Wallet int64 `json:"wallet" redis:"wallet"`

	Verified      bool              `json:"verified" redis:"verified"`
	TwoFAEnabled  bool              `json:"two_fa_enabled" redis:"two_fa_enabled"`
	Notifications NotificationPrefs `json:"notifications" redis:"notifications"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) CanSell() bool {
	return u.Role == RoleSeller || u.Role == RoleAdmin
}
