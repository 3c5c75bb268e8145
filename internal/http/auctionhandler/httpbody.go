package auctionhandler

// Prices travel as decimal strings in wei; they exceed what JSON
// numbers can carry losslessly.

type CreateAuctionBody struct {
	Seller        string `json:"seller"         binding:"required,eth_addr" example:"0x90f79bf6eb2c4f870365e785982e1f101e93b906"`
	AssetKind     uint8  `json:"asset_kind"     example:"0"`
	TokenContract string `json:"token_contract" binding:"required,eth_addr" example:"0x5fbdb2315678afecb367f032d93f642f64180aa3"`
	TokenID       uint64 `json:"token_id"       example:"1"`
	StartDate     int64  `json:"start_date"     binding:"required" example:"1756400000"`
	StartPrice    string `json:"start_price"    binding:"required,number" example:"10000000000000000000"`
	EndDate       int64  `json:"end_date"       binding:"required" example:"1756500000"`
	EndPrice      string `json:"end_price"      binding:"required,number" example:"1000000000000000000"`
} // @name CreateAuctionRequest

type CreateAuctionResponse struct {
	AuctionID string `json:"auction_id" example:"0x3cd2..."`
} // @name CreateAuctionResponse

type BidBody struct {
	Buyer string `json:"buyer" binding:"required,eth_addr" example:"0x15d34aaf54267db7d7c367839aaf71a00a2c6a65"`
} // @name BidRequest

type ReclaimBody struct {
	Caller string `json:"caller" binding:"required,eth_addr" example:"0x90f79bf6eb2c4f870365e785982e1f101e93b906"`
} // @name ReclaimRequest

type SetEligibleBody struct {
	Caller        string `json:"caller"         binding:"required,eth_addr"`
	TokenContract string `json:"token_contract" binding:"required,eth_addr"`
	Eligible      *bool  `json:"eligible"       binding:"required"`
} // @name SetEligibleRequest

type PriceResponse struct {
	AuctionID    string `json:"auction_id"`
	Price        string `json:"price"         example:"5500000000000000000"`
	DisplayPrice string `json:"display_price" example:"5.5"`
	At           int64  `json:"at"`
} // @name PriceResponse

type AuctionIDQuery struct {
	Seller        string `form:"seller"         binding:"required,eth_addr"`
	TokenContract string `form:"token_contract" binding:"required,eth_addr"`
	TokenID       uint64 `form:"token_id"`
	StartDate     int64  `form:"start_date"     binding:"required"`
	StartPrice    string `form:"start_price"    binding:"required,number"`
	EndDate       int64  `form:"end_date"       binding:"required"`
} // @name AuctionIDQuery

type AuctionIDResponse struct {
	AuctionID string `json:"auction_id"`
} // @name AuctionIDResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=NOT_ASSIGNED STARTED SOLD CLOSED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListAuctionsQuery
