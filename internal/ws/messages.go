package ws

import (
	"encoding/json"

	"dutchauctiongo/internal/domain"
)

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "auctions/bid"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// ConnContext identifies one websocket connection to the handlers: the
// auction room it joined and the wallet address it authenticated as.
type ConnContext struct {
	AuctionID domain.AuctionID
	UserID    domain.Address
	Server    *WsServer
}

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// BidRequest is the body for "auctions/bid". A descending-price auction
// takes no amount; the clock fixes the price and the connection's wallet
// is the buyer.
type BidRequest struct{}

// PriceBody answers "auctions/price".
type PriceBody struct {
	Price        string `json:"price"`
	DisplayPrice string `json:"display_price"`
	At           int64  `json:"at"`
}

// Empty ACK body (useful for many handlers).
type AckBody struct{}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
