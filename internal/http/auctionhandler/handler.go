package auctionhandler

import (
	"errors"
	"math/big"
	"net/http"
	"time"

	"dutchauctiongo/internal/domain"
	"dutchauctiongo/internal/services/auction"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	svc auction.IAuctionService
}

func New(svc auction.IAuctionService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/auctions", h.list)
	r.POST("/auctions", h.create)
	r.GET("/auctions/:id", h.info)
	r.GET("/auctions/:id/price", h.price)
	r.POST("/auctions/:id/bid", h.bid)
	r.POST("/auctions/:id/reclaim", h.reclaim)
	r.GET("/auction-id", h.auctionID)
	r.POST("/eligibility", h.setEligible)
}

// @Summary		Create an auction
// @Description	Escrows the token and opens a descending-price auction.
// @Tags			Auctions
// @Param			body	body		CreateAuctionBody	true	"Auction parameters"
// @Success		201		{object}	CreateAuctionResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		403		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	startPrice, err := parsePrice(body.StartPrice)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "start_price: " + err.Error()})
		return
	}
	endPrice, err := parsePrice(body.EndPrice)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "end_price: " + err.Error()})
		return
	}

	id, err := h.svc.CreateAuction(ginCtx.Request.Context(), auction.CreateParams{
		Seller:        domain.Address(body.Seller),
		AssetKind:     domain.AssetKind(body.AssetKind),
		TokenContract: domain.Address(body.TokenContract),
		TokenID:       body.TokenID,
		StartDate:     body.StartDate,
		StartPrice:    startPrice,
		EndDate:       body.EndDate,
		EndPrice:      endPrice,
	})
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusCreated, CreateAuctionResponse{AuctionID: string(id)})
}

// @Summary		Get auction details
// @Description	Returns full information about a single auction.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.AuctionDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(c *gin.Context) {
	dto, err := h.svc.GetAuction(c, domain.AuctionID(c.Param("id")))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		List auctions
// @Description	Retrieves a paginated list of auctions, optionally filtered by status.
// @Tags			Auctions
// @Param			status	query		string	false	"Status filter"			Enums(NOT_ASSIGNED,STARTED,SOLD,CLOSED)
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		auction.AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(c *gin.Context) {
	var q ListAuctionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListAuctions(c, q.Status, q.Limit, q.Offset)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Current price
// @Description	Returns the clock-derived price of a running auction.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	PriceResponse
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/price [get]
func (h *Handler) price(ginCtx *gin.Context) {
	id := domain.AuctionID(ginCtx.Param("id"))
	price, err := h.svc.GetAuctionPrice(ginCtx.Request.Context(), id)
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, PriceResponse{
		AuctionID:    string(id),
		Price:        price.String(),
		DisplayPrice: decimal.NewFromBigInt(price, -18).String(),
		At:           time.Now().Unix(),
	})
}

// @Summary		Buy at the current price
// @Description	Settles the auction at the clock-derived price for the buyer.
// @Tags			Auctions
// @Param			id		path	string	true	"Auction ID"
// @Param			body	body	BidBody	true	"Bid payload"
// @Success		202
// @Failure		400	{object}	ErrorResponse
// @Failure		402	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/bid [post]
func (h *Handler) bid(ginCtx *gin.Context) {
	var body BidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	id := domain.AuctionID(ginCtx.Param("id"))
	if err := h.svc.Bid(ginCtx.Request.Context(), id, domain.Address(body.Buyer)); err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.Status(http.StatusAccepted)
}

// @Summary		Reclaim an unsold token
// @Description	Seller takes the token back after the window closed.
// @Tags			Auctions
// @Param			id		path	string		true	"Auction ID"
// @Param			body	body	ReclaimBody	true	"Reclaim payload"
// @Success		202
// @Failure		403	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/reclaim [post]
func (h *Handler) reclaim(ginCtx *gin.Context) {
	var body ReclaimBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	id := domain.AuctionID(ginCtx.Param("id"))
	if err := h.svc.Reclaim(ginCtx.Request.Context(), id, domain.Address(body.Caller)); err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.Status(http.StatusAccepted)
}

// @Summary		Derive an auction id
// @Description	Computes the deterministic id for an auction parameter tuple.
// @Tags			Auctions
// @Param			query	query		AuctionIDQuery	true	"Identity parameters"
// @Success		200		{object}	AuctionIDResponse
// @Failure		400		{object}	ErrorResponse
// @Router			/auction-id [get]
func (h *Handler) auctionID(ginCtx *gin.Context) {
	var q AuctionIDQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	startPrice, err := parsePrice(q.StartPrice)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "start_price: " + err.Error()})
		return
	}

	id := h.svc.GetAuctionID(auction.IdentityParams{
		Seller:        domain.Address(q.Seller),
		TokenContract: domain.Address(q.TokenContract),
		TokenID:       q.TokenID,
		StartDate:     q.StartDate,
		StartPrice:    startPrice,
		EndDate:       q.EndDate,
	})
	ginCtx.JSON(http.StatusOK, AuctionIDResponse{AuctionID: string(id)})
}

// @Summary		Allow or deny a token contract
// @Description	Admin marks a token contract as sellable.
// @Tags			Admin
// @Param			body	body	SetEligibleBody	true	"Eligibility payload"
// @Success		204
// @Failure		403	{object}	ErrorResponse
// @Router			/eligibility [post]
func (h *Handler) setEligible(ginCtx *gin.Context) {
	var body SetEligibleBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	err := h.svc.SetEligible(ginCtx.Request.Context(),
		domain.Address(body.Caller),
		domain.Address(body.TokenContract),
		*body.Eligible,
	)
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.Status(http.StatusNoContent)
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrAlreadyInitialized),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrOutOfWindow):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parsePrice(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("not a base-10 integer")
	}
	if v.Sign() < 0 {
		return nil, errors.New("must not be negative")
	}
	return v, nil
}
