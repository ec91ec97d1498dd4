package services

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountUnavailable  = errors.New("account is not available for purchase")
	ErrTicketAssigned      = errors.New("ticket already assigned")
	ErrListingSold         = errors.New("sold listings cannot be modified")
)
