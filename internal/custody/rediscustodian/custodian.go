// Package rediscustodian adapts a Redis-backed ERC-721 style ownership
// registry to the AssetCustodian interface. Ownership and approvals
// live under plain string keys; the transfer paths run as Redis
// Functions (see internal/redis/redis_functions/custody.lua) so the
// owner/approval check and the move are one atomic server-side step.
package rediscustodian

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dutchauctiongo/internal/domain"

	"github.com/redis/go-redis/v9"
)

type Custodian struct {
	rdc    *redis.Client
	escrow domain.Address
}

// New returns a custodian whose pulls take custody into the escrow
// account.
func New(rdc *redis.Client, escrow domain.Address) *Custodian {
	return &Custodian{rdc: rdc, escrow: escrow.Normalize()}
}

func ownerKey(contract domain.Address, tokenID uint64) string {
	return fmt.Sprintf("nft:%s:owner:%d", contract.Normalize(), tokenID)
}

func approvalKey(contract domain.Address, tokenID uint64) string {
	return fmt.Sprintf("nft:%s:approval:%d", contract.Normalize(), tokenID)
}

func (c *Custodian) OwnerOf(ctx context.Context, contract domain.Address, tokenID uint64) (domain.Address, error) {
	owner, err := c.rdc.Get(ctx, ownerKey(contract, tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errors.New("token does not exist")
	}
	if err != nil {
		return "", err
	}
	return domain.Address(owner), nil
}

func (c *Custodian) PullCustody(ctx context.Context, contract, from domain.Address, tokenID uint64) error {
	err := c.rdc.FCall(ctx, "custody_pull",
		[]string{ownerKey(contract, tokenID), approvalKey(contract, tokenID)},
		string(from.Normalize()),
		string(c.escrow),
	).Err()
	return mapFunctionErr(err)
}

func (c *Custodian) PushCustody(ctx context.Context, contract, to domain.Address, tokenID uint64) error {
	err := c.rdc.FCall(ctx, "custody_push",
		[]string{ownerKey(contract, tokenID)},
		string(c.escrow),
		string(to.Normalize()),
	).Err()
	return mapFunctionErr(err)
}

// Mint registers a token owner; no-op when the token already exists.
// Test and bootstrap helper, not part of the AssetCustodian surface.
func (c *Custodian) Mint(ctx context.Context, contract, to domain.Address, tokenID uint64) error {
	return c.rdc.SetNX(ctx, ownerKey(contract, tokenID), string(to.Normalize()), 0).Err()
}

// Approve lets the token owner authorize a single operator for one
// token, mirroring ERC-721 approve.
func (c *Custodian) Approve(ctx context.Context, contract, operator domain.Address, tokenID uint64) error {
	return c.rdc.Set(ctx, approvalKey(contract, tokenID), string(operator.Normalize()), 0).Err()
}

func mapFunctionErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case strings.Contains(err.Error(), "token_unknown"):
		return errors.New("token does not exist")
	case strings.Contains(err.Error(), "not_owner"):
		return errors.New("sender is not the token owner")
	case strings.Contains(err.Error(), "not_approved"):
		return errors.New("transfer not approved")
	case strings.Contains(err.Error(), "not_in_escrow"):
		return errors.New("token not in escrow custody")
	}
	return err
}
