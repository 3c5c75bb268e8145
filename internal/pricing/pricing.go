// Package pricing implements the linear price decay of a Dutch auction.
//
// All arithmetic is exact big-integer math over wei-scale amounts. The
// decay term divides last and truncates toward zero, so the settlement
// price is deterministic for any query time.
package pricing

import "math/big"

// PriceAt returns the live price at time now for an auction decaying
// linearly from startPrice at startDate to endPrice at endDate:
//
//	price(now) = startPrice - (startPrice-endPrice)*(now-startDate)/(endDate-startDate)
//
// A zero endPrice is just a boundary value, not a special case. The
// function is defined for startDate <= now <= endDate and endDate >
// startDate; callers gate the window themselves (see ClampedPriceAt for
// the query-side variant).
func PriceAt(startDate int64, startPrice *big.Int, endDate int64, endPrice *big.Int, now int64) *big.Int {
	decay := new(big.Int).Sub(startPrice, endPrice)
	decay.Mul(decay, big.NewInt(now-startDate))
	decay.Quo(decay, big.NewInt(endDate-startDate))
	return new(big.Int).Sub(startPrice, decay)
}

// ClampedPriceAt is PriceAt with the domain extended to all of time:
// before startDate it reports startPrice, after endDate it reports
// endPrice. Used for read-only price queries only; bid and reclaim apply
// their own window gates.
func ClampedPriceAt(startDate int64, startPrice *big.Int, endDate int64, endPrice *big.Int, now int64) *big.Int {
	if now <= startDate {
		return new(big.Int).Set(startPrice)
	}
	if now >= endDate {
		return new(big.Int).Set(endPrice)
	}
	return PriceAt(startDate, startPrice, endDate, endPrice, now)
}
