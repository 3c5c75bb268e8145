package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/big"
)

// DeriveAuctionID computes the deterministic auction identifier as a
// SHA-256 over the fixed-width encoding of the six defining parameters:
//
//	seller(20) | tokenContract(20) | tokenID(8 BE) | startDate(8 BE) |
//	startPrice(32 BE) | endDate(8 BE)
//
// Same inputs always produce the same id, regardless of call order or
// elapsed time. Field order and widths are part of the contract.
func DeriveAuctionID(seller, tokenContract Address, tokenID uint64, startDate int64, startPrice *big.Int, endDate int64) AuctionID {
	buf := make([]byte, 0, 96)

	sb := seller.bytes20()
	cb := tokenContract.bytes20()
	buf = append(buf, sb[:]...)
	buf = append(buf, cb[:]...)
	buf = binary.BigEndian.AppendUint64(buf, tokenID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(startDate))

	price := make([]byte, 32)
	if startPrice != nil && startPrice.Sign() > 0 {
		startPrice.FillBytes(price)
	}
	buf = append(buf, price...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(endDate))

	sum := sha256.Sum256(buf)
	return AuctionID("0x" + hex.EncodeToString(sum[:]))
}
