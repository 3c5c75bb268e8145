package domain

import (
	"encoding/hex"
	"math/big"
	"strings"
)

// Address identifies an account or a token contract.
// Canonical form is lowercase "0x" + 40 hex chars; the HTTP layer
// validates the syntax, the domain only normalizes.
type Address string

func (a Address) Normalize() Address {
	return Address(strings.ToLower(string(a)))
}

// bytes20 returns the fixed-width binary form used for identity hashing.
// Shorter inputs are left-padded, longer ones keep their low-order bytes,
// so any canonical address maps to exactly 20 bytes.
func (a Address) bytes20() [20]byte {
	var out [20]byte
	s := strings.TrimPrefix(string(a.Normalize()), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		b = []byte(s)
	}
	if len(b) > 20 {
		b = b[len(b)-20:]
	}
	copy(out[20-len(b):], b)
	return out
}

// AuctionID is the content-derived auction identifier, lowercase
// "0x" + 64 hex chars. See DeriveAuctionID.
type AuctionID string

// AssetKind selects the asset-transfer standard of the listed token.
type AssetKind uint8

const (
	AssetKindERC721 AssetKind = 0
)

// Status is the auction lifecycle state.
type Status uint8

const (
	StatusNotAssigned Status = iota
	StatusStarted
	StatusSold
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "STARTED"
	case StatusSold:
		return "SOLD"
	case StatusClosed:
		return "CLOSED"
	default:
		return "NOT_ASSIGNED"
	}
}

// Record is a single domain. The registry is the sole mutator; everything
// else works on copies returned by the registry.
type Record struct {
	ID            AuctionID
	Seller        Address
	TokenOwner    Address // custody-return target on reclaim
	TokenContract Address
	TokenID       uint64
	StartDate     int64 // unix seconds, inclusive
	EndDate       int64 // unix seconds, inclusive
	StartPrice    *big.Int
	EndPrice      *big.Int
	Status        Status
	Buyer         Address  // set once status is Sold
	SoldPrice     *big.Int // settlement price captured at bid time
}

// Clone returns a deep copy so callers can never alias registry state.
func (r Record) Clone() Record {
	out := r
	if r.StartPrice != nil {
		out.StartPrice = new(big.Int).Set(r.StartPrice)
	}
	if r.EndPrice != nil {
		out.EndPrice = new(big.Int).Set(r.EndPrice)
	}
	if r.SoldPrice != nil {
		out.SoldPrice = new(big.Int).Set(r.SoldPrice)
	}
	return out
}
