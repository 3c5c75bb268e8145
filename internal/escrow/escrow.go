// Package escrow couples asset custody moves to payment settlement.
//
// The coordinator is the only component that talks to the untrusted
// collaborators (asset custodian, payment ledger). Every method is
// all-or-nothing from the caller's point of view: a partial transfer is
// compensated before the error is returned.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"dutchauctiongo/internal/domain"

	"go.uber.org/zap"
)

type Coordinator struct {
	custodian domain.AssetCustodian
	ledger    domain.PaymentLedger
}

func New(custodian domain.AssetCustodian, ledger domain.PaymentLedger) *Coordinator {
	return &Coordinator{custodian: custodian, ledger: ledger}
}

// VerifyOwner checks that owner currently holds the token. Sellers that
// do not own the asset they list fail with ErrUnauthorized.
func (c *Coordinator) VerifyOwner(ctx context.Context, tokenContract, owner domain.Address, tokenID uint64) error {
	cur, err := c.custodian.OwnerOf(ctx, tokenContract, tokenID)
	if err != nil {
		return fmt.Errorf("%w: ownerOf: %v", domain.ErrTransferFailed, err)
	}
	if cur.Normalize() != owner.Normalize() {
		return domain.ErrUnauthorized
	}
	return nil
}

// LockAsset pulls the token from the seller into escrow custody. The
// pull relies on the seller's prior approval; a missing approval is a
// collaborator-side rejection.
func (c *Coordinator) LockAsset(ctx context.Context, tokenContract, seller domain.Address, tokenID uint64) error {
	if err := c.custodian.PullCustody(ctx, tokenContract, seller, tokenID); err != nil {
		return fmt.Errorf("%w: pull custody: %v", domain.ErrTransferFailed, err)
	}
	return nil
}

// ReturnAsset pushes the token out of escrow back to its owner (reclaim)
// or on compensation paths.
func (c *Coordinator) ReturnAsset(ctx context.Context, tokenContract, to domain.Address, tokenID uint64) error {
	if err := c.custodian.PushCustody(ctx, tokenContract, to, tokenID); err != nil {
		return fmt.Errorf("%w: push custody: %v", domain.ErrTransferFailed, err)
	}
	return nil
}

// Settle performs the coupled sale settlement: debit the buyer, hand
// the token to the buyer, then credit the seller. The ordering keeps
// every abort path allowance-free: until the custody push succeeds the
// only funds in motion are the buyer's, and those are returned with a
// plain Credit. Once the buyer holds the token the sale is final; a
// failed seller payout is reconciled from the sales journal, never
// unwound.
func (c *Coordinator) Settle(ctx context.Context, tokenContract, buyer, seller domain.Address, tokenID uint64, price *big.Int) error {
	if err := c.ledger.Debit(ctx, buyer, price); err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return err
		}
		return fmt.Errorf("%w: debit buyer: %v", domain.ErrTransferFailed, err)
	}

	if err := c.custodian.PushCustody(ctx, tokenContract, buyer, tokenID); err != nil {
		c.refund(ctx, buyer, price)
		return fmt.Errorf("%w: release asset: %v", domain.ErrTransferFailed, err)
	}

	if err := c.ledger.Credit(ctx, seller, price); err != nil {
		zap.L().Error("escrow_seller_payout_failed",
			zap.String("seller", string(seller)),
			zap.String("amount", price.String()),
			zap.Error(err))
	}
	return nil
}

func (c *Coordinator) refund(ctx context.Context, buyer domain.Address, amount *big.Int) {
	if err := c.ledger.Credit(ctx, buyer, amount); err != nil {
		zap.L().Error("escrow_refund_failed",
			zap.String("buyer", string(buyer)), zap.Error(err))
	}
}
