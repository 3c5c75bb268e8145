package domain

import (
	"context"
	"math/big"
)

// AssetCustodian is the minimal surface of an ERC-721 style ownership
// registry. Pull requires a prior approval from the current owner; both
// transfer calls are all-or-nothing on the collaborator side.
type AssetCustodian interface {
	OwnerOf(ctx context.Context, tokenContract Address, tokenID uint64) (Address, error)
	PullCustody(ctx context.Context, tokenContract, from Address, tokenID uint64) error
	PushCustody(ctx context.Context, tokenContract, to Address, tokenID uint64) error
}

// PaymentLedger is the minimal surface of an ERC-20 style balance ledger
// for the configured payment asset. Debit requires a prior allowance from
// the debited account.
type PaymentLedger interface {
	Debit(ctx context.Context, from Address, amount *big.Int) error
	Credit(ctx context.Context, to Address, amount *big.Int) error
	BalanceOf(ctx context.Context, account Address) (*big.Int, error)
}
