// Package redisledger adapts a Redis-backed ERC-20 style balance store
// to the PaymentLedger interface for one configured payment asset.
//
// Amounts are wei-scale big integers stored as decimal strings; they
// overflow Redis' native 64-bit counters, so mutations run as WATCH /
// MULTI optimistic transactions with the arithmetic done client-side.
package redisledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"dutchauctiongo/internal/domain"

	"github.com/redis/go-redis/v9"
)

const txRetries = 5

type Ledger struct {
	rdc   *redis.Client
	token domain.Address
}

// New returns a ledger over the balances of the given payment asset.
func New(rdc *redis.Client, token domain.Address) *Ledger {
	return &Ledger{rdc: rdc, token: token.Normalize()}
}

func (l *Ledger) balanceKey(account domain.Address) string {
	return fmt.Sprintf("ledger:%s:bal:%s", l.token, account.Normalize())
}

func (l *Ledger) allowanceKey(account domain.Address) string {
	return fmt.Sprintf("ledger:%s:allowance:%s", l.token, account.Normalize())
}

// Debit withdraws amount from the account, consuming an equal part of
// the allowance the account granted to the escrow. Fails with
// ErrInsufficientFunds on a short balance and a plain error on a short
// allowance; either way nothing is written.
func (l *Ledger) Debit(ctx context.Context, from domain.Address, amount *big.Int) error {
	balKey, alwKey := l.balanceKey(from), l.allowanceKey(from)

	txf := func(tx *redis.Tx) error {
		bal, err := getAmount(ctx, tx, balKey)
		if err != nil {
			return err
		}
		if bal.Cmp(amount) < 0 {
			return domain.ErrInsufficientFunds
		}
		allowance, err := getAmount(ctx, tx, alwKey)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return errors.New("allowance exceeded")
		}

		bal.Sub(bal, amount)
		allowance.Sub(allowance, amount)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, balKey, bal.String(), 0)
			pipe.Set(ctx, alwKey, allowance.String(), 0)
			return nil
		})
		return err
	}
	return l.retry(ctx, txf, balKey, alwKey)
}

// Credit deposits amount into the account.
func (l *Ledger) Credit(ctx context.Context, to domain.Address, amount *big.Int) error {
	balKey := l.balanceKey(to)

	txf := func(tx *redis.Tx) error {
		bal, err := getAmount(ctx, tx, balKey)
		if err != nil {
			return err
		}
		bal.Add(bal, amount)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, balKey, bal.String(), 0)
			return nil
		})
		return err
	}
	return l.retry(ctx, txf, balKey)
}

func (l *Ledger) BalanceOf(ctx context.Context, account domain.Address) (*big.Int, error) {
	return getAmount(ctx, l.rdc, l.balanceKey(account))
}

// Approve sets the allowance the account grants to the escrow spender.
// Bootstrap/test helper, not part of the PaymentLedger surface.
func (l *Ledger) Approve(ctx context.Context, account domain.Address, amount *big.Int) error {
	return l.rdc.Set(ctx, l.allowanceKey(account), amount.String(), 0).Err()
}

// Mint credits freshly issued funds. Bootstrap/test helper.
func (l *Ledger) Mint(ctx context.Context, account domain.Address, amount *big.Int) error {
	return l.Credit(ctx, account, amount)
}

func (l *Ledger) retry(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < txRetries; i++ {
		err := l.rdc.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return errors.New("ledger transaction contention")
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getAmount(ctx context.Context, g getter, key string) (*big.Int, error) {
	raw, err := g.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	amt, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt ledger amount under %s", key)
	}
	return amt, nil
}
