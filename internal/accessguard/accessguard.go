// Package accessguard keeps the admin-controlled allow-list of token
// contracts that may be listed for auction.
package accessguard

import (
	"sync"

	"dutchauctiongo/internal/domain"

	"go.uber.org/zap"
)

type Guard struct {
	admin    domain.Address
	mu       sync.RWMutex
	eligible map[domain.Address]bool
}

func New(admin domain.Address) *Guard {
	return &Guard{
		admin:    admin.Normalize(),
		eligible: make(map[domain.Address]bool),
	}
}

// SetEligible flips eligibility of a token contract. Only the configured
// admin may call it.
func (g *Guard) SetEligible(caller, tokenContract domain.Address, eligible bool) error {
	if caller.Normalize() != g.admin {
		return domain.ErrUnauthorized
	}

	g.mu.Lock()
	g.eligible[tokenContract.Normalize()] = eligible
	g.mu.Unlock()

	zap.L().Info("contract_eligibility_set",
		zap.String("token_contract", string(tokenContract)),
		zap.Bool("eligible", eligible),
	)
	return nil
}

// Eligible reports whether auctions may be created for tokens of the
// given contract. Unknown contracts are ineligible.
func (g *Guard) Eligible(tokenContract domain.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.eligible[tokenContract.Normalize()]
}
