package domain

import "errors"

// Failure taxonomy of the auction service. Every operation aborts with
// exactly one of these (possibly wrapped); there is no partial state left
// behind and nothing is retried internally.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidState       = errors.New("invalid auction state")
	ErrAlreadyExists      = errors.New("auction already exists")
	ErrOutOfWindow        = errors.New("out of auction window")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrTransferFailed     = errors.New("transfer failed")
	ErrNotFound           = errors.New("auction not found")
	ErrInvalidWindow      = errors.New("invalid auction window")
	ErrAlreadyInitialized = errors.New("already initialized")
)
