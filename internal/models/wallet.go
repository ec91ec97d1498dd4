package models

type WalletActionType string

const (
	WalletActionDeposit    WalletActionType = "deposit"
	WalletActionWithdrawal WalletActionType = "withdrawal"
	WalletActionTransfer   WalletActionType = "transfer"
)

// WalletAction is an immutable ledger entry. Amount is the magnitude in
// cents; the type carries the sign. BalanceAfter is filled in by the
// wallet script at write time, inside the same atomic step as the
// balance change.
type WalletAction struct {
	ID           string           `json:"id" redis:"id"`
	UserID       string           `json:"user_id" redis:"user_id"`
	Type         WalletActionType `json:"type" redis:"type"`
	Amount       int64            `json:"amount" redis:"amount"`
	BalanceAfter int64            `json:"balance_after" redis:"balance_after"`
	Message      string           `json:"message" redis:"message"`
	CreatedAt    int64            `json:"created_at" redis:"created_at"`
}
