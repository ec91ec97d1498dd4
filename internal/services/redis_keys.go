package services

import "time"

const (
	KeyUser          = "user:%s"
	KeyEmailIndex    = "index:email:%s"
	KeyUsernameIndex = "index:username:%s"
	KeyUsersAll      = "users:all"

	KeyAccount        = "account:%s"
	KeyAccountViews   = "account:views:%s"
	KeySlugIndex      = "index:slug:%s"
	KeyActiveAccounts = "accounts:active:%s" // per game
	KeySellerAccounts = "accounts:seller:%s"

	KeyOrder        = "order:%s"
	KeyOrdersAll    = "orders:all"
	KeyOrdersSeller = "orders:seller:%s"
	KeyOrdersClient = "orders:client:%s"

	KeyChat            = "chat:%s"
	KeyChatOrderIndex  = "chat:order:%s"
	KeyChatTicketIndex = "chat:ticket:%s"
	KeyUserChats       = "chats:user:%s"

	KeyTicket            = "ticket:%s"
	KeyTicketsAll        = "tickets:all"
	KeyTicketsUnassigned = "tickets:unassigned"
	KeyTicketsAdmin      = "tickets:admin:%s"
	KeyTicketsCreator    = "tickets:creator:%s"

	KeyWalletAction  = "walletaction:%s"
	KeyWalletHistory = "wallet:history:%s"

	KeyRateLimit     = "ratelimit:%s:%s"
	KeyPaymentIntent = "payment:intent:%s"

	DefaultRateLimitMessages = 60 // messages per minute
	DefaultRateLimitOrders   = 10 // checkout attempts per minute
)

const (
	TTLPaymentIntent = 30 * 24 * time.Hour
)
