// Package escrowtest provides in-memory collaborator fakes for tests:
// an ERC-721 style custodian and an ERC-20 style ledger with the same
// owner/approval semantics the production adapters enforce.
package escrowtest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"dutchauctiongo/internal/domain"
)

type tokenKey struct {
	contract domain.Address
	tokenID  uint64
}

// MemCustodian holds token ownership in memory. Pull moves a token into
// the configured escrow account and requires the owner's prior approval,
// push moves it out again.
type MemCustodian struct {
	Escrow domain.Address

	mu        sync.Mutex
	owners    map[tokenKey]domain.Address
	approvals map[tokenKey]domain.Address

	FailPull bool
	FailPush bool
	OnPush   func() // invoked before push succeeds; used to simulate reentrancy
}

func NewMemCustodian(escrow domain.Address) *MemCustodian {
	return &MemCustodian{
		Escrow:    escrow.Normalize(),
		owners:    make(map[tokenKey]domain.Address),
		approvals: make(map[tokenKey]domain.Address),
	}
}

func (m *MemCustodian) Mint(contract, to domain.Address, tokenID uint64) {
	m.mu.Lock()
	m.owners[tokenKey{contract.Normalize(), tokenID}] = to.Normalize()
	m.mu.Unlock()
}

func (m *MemCustodian) Approve(contract, operator domain.Address, tokenID uint64) {
	m.mu.Lock()
	m.approvals[tokenKey{contract.Normalize(), tokenID}] = operator.Normalize()
	m.mu.Unlock()
}

func (m *MemCustodian) OwnerOf(_ context.Context, contract domain.Address, tokenID uint64) (domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[tokenKey{contract.Normalize(), tokenID}]
	if !ok {
		return "", errors.New("token does not exist")
	}
	return owner, nil
}

func (m *MemCustodian) PullCustody(_ context.Context, contract, from domain.Address, tokenID uint64) error {
	if m.FailPull {
		return errors.New("pull rejected")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := tokenKey{contract.Normalize(), tokenID}
	if m.owners[k] != from.Normalize() {
		return fmt.Errorf("%s is not the owner", from)
	}
	if m.approvals[k] != m.Escrow {
		return errors.New("transfer not approved")
	}
	m.owners[k] = m.Escrow
	delete(m.approvals, k)
	return nil
}

func (m *MemCustodian) PushCustody(_ context.Context, contract, to domain.Address, tokenID uint64) error {
	if m.FailPush {
		return errors.New("push rejected")
	}
	if m.OnPush != nil {
		m.OnPush()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := tokenKey{contract.Normalize(), tokenID}
	if m.owners[k] != m.Escrow {
		return errors.New("token not in escrow")
	}
	m.owners[k] = to.Normalize()
	return nil
}

// MemLedger holds payment balances in memory. Debit requires a prior
// allowance granted to the escrow account.
type MemLedger struct {
	Escrow domain.Address

	mu         sync.Mutex
	balances   map[domain.Address]*big.Int
	allowances map[domain.Address]*big.Int

	FailCredit bool
}

func NewMemLedger(escrow domain.Address) *MemLedger {
	return &MemLedger{
		Escrow:     escrow.Normalize(),
		balances:   make(map[domain.Address]*big.Int),
		allowances: make(map[domain.Address]*big.Int),
	}
}

func (m *MemLedger) Mint(account domain.Address, amount *big.Int) {
	m.mu.Lock()
	m.add(account.Normalize(), amount)
	m.mu.Unlock()
}

func (m *MemLedger) ApproveSpend(account domain.Address, amount *big.Int) {
	m.mu.Lock()
	m.allowances[account.Normalize()] = new(big.Int).Set(amount)
	m.mu.Unlock()
}

func (m *MemLedger) Debit(_ context.Context, from domain.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct := from.Normalize()
	bal := m.balances[acct]
	if bal == nil || bal.Cmp(amount) < 0 {
		return domain.ErrInsufficientFunds
	}
	allowance := m.allowances[acct]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return errors.New("allowance exceeded")
	}
	allowance.Sub(allowance, amount)
	bal.Sub(bal, amount)
	return nil
}

func (m *MemLedger) Credit(_ context.Context, to domain.Address, amount *big.Int) error {
	if m.FailCredit {
		return errors.New("credit rejected")
	}
	m.mu.Lock()
	m.add(to.Normalize(), amount)
	m.mu.Unlock()
	return nil
}

func (m *MemLedger) BalanceOf(_ context.Context, account domain.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[account.Normalize()]
	if bal == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (m *MemLedger) add(acct domain.Address, amount *big.Int) {
	if m.balances[acct] == nil {
		m.balances[acct] = new(big.Int)
	}
	m.balances[acct].Add(m.balances[acct], amount)
}
