package auction

import (
	"context"
	"math/big"
	"sync"
	"time"

	"dutchauctiongo/internal/accessguard"
	"dutchauctiongo/internal/domain"
	"dutchauctiongo/internal/escrow"
	"dutchauctiongo/internal/events"
	"dutchauctiongo/internal/pricing"
	"dutchauctiongo/internal/registry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateParams are the caller-supplied auction parameters.
type CreateParams struct {
	Seller        domain.Address
	AssetKind     domain.AssetKind
	TokenContract domain.Address
	TokenID       uint64
	StartDate     int64
	StartPrice    *big.Int
	EndDate       int64
	EndPrice      *big.Int
}

// IdentityParams are the six fields the auction id is derived from.
type IdentityParams struct {
	Seller        domain.Address
	TokenContract domain.Address
	TokenID       uint64
	StartDate     int64
	StartPrice    *big.Int
	EndDate       int64
}

type AuctionDTO struct {
	ID                domain.AuctionID `json:"id"`
	Seller            domain.Address   `json:"seller"`
	TokenOwner        domain.Address   `json:"token_owner"`
	TokenContract     domain.Address   `json:"token_contract"`
	TokenID           uint64           `json:"token_id"`
	StartDate         int64            `json:"start_date"`
	EndDate           int64            `json:"end_date"`
	StartPrice        string           `json:"start_price"`
	EndPrice          string           `json:"end_price"`
	DisplayStartPrice string           `json:"display_start_price"`
	DisplayEndPrice   string           `json:"display_end_price"`
	Status            string           `json:"status"    example:"STARTED"`
	Buyer             domain.Address   `json:"buyer,omitempty"`
	SoldPrice         string           `json:"sold_price,omitempty"`
}

type IAuctionService interface {
	Initialize(ctx context.Context, paymentAsset domain.Address) error
	CreateAuction(ctx context.Context, p CreateParams) (domain.AuctionID, error)
	Bid(ctx context.Context, id domain.AuctionID, buyer domain.Address) error
	Reclaim(ctx context.Context, id domain.AuctionID, caller domain.Address) error
	GetAuction(ctx context.Context, id domain.AuctionID) (*AuctionDTO, error)
	GetAuctionPrice(ctx context.Context, id domain.AuctionID) (*big.Int, error)
	GetAuctionID(p IdentityParams) domain.AuctionID
	SetEligible(ctx context.Context, caller, tokenContract domain.Address, eligible bool) error
	ListAuctions(ctx context.Context, status string, limit, offset int) ([]AuctionDTO, error)
}

type dutchAuctionService struct {
	guard *accessguard.Guard
	reg   *registry.Registry
	esc   *escrow.Coordinator
	pub   events.Publisher

	nowFn func() time.Time

	mu           sync.Mutex
	initialized  bool
	paymentAsset domain.Address
}

func NewAuctionService(guard *accessguard.Guard, reg *registry.Registry, esc *escrow.Coordinator, pub events.Publisher) IAuctionService {
	return &dutchAuctionService{
		guard: guard,
		reg:   reg,
		esc:   esc,
		pub:   pub,
		nowFn: time.Now,
	}
}

// Initialize records the payment asset and arms the service. One-time.
func (svc *dutchAuctionService) Initialize(_ context.Context, paymentAsset domain.Address) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.initialized {
		return domain.ErrAlreadyInitialized
	}
	svc.initialized = true
	svc.paymentAsset = paymentAsset.Normalize()

	zap.L().Info("auction_service_initialized",
		zap.String("payment_asset", string(svc.paymentAsset)))
	return nil
}

func (svc *dutchAuctionService) ensureInitialized() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if !svc.initialized {
		return domain.ErrInvalidState
	}
	return nil
}

// CreateAuction lists a token. The id is reserved before custody is
// pulled so two identical creates cannot both succeed; the reservation
// is released again when the pull fails, leaving no trace of the failed
// attempt.
func (svc *dutchAuctionService) CreateAuction(ctx context.Context, p CreateParams) (domain.AuctionID, error) {
	if err := svc.ensureInitialized(); err != nil {
		return "", err
	}
	if p.AssetKind != domain.AssetKindERC721 {
		return "", domain.ErrUnauthorized
	}
	if err := validateWindow(p); err != nil {
		return "", err
	}
	if !svc.guard.Eligible(p.TokenContract) {
		return "", domain.ErrUnauthorized
	}
	id := domain.DeriveAuctionID(p.Seller, p.TokenContract, p.TokenID, p.StartDate, p.StartPrice, p.EndDate)
	if err := svc.reg.Reserve(id); err != nil {
		return "", err
	}

	if err := svc.esc.VerifyOwner(ctx, p.TokenContract, p.Seller, p.TokenID); err != nil {
		svc.reg.Release(id)
		return "", err
	}
	if err := svc.esc.LockAsset(ctx, p.TokenContract, p.Seller, p.TokenID); err != nil {
		svc.reg.Release(id)
		return "", err
	}

	rec := domain.Record{
		ID:            id,
		Seller:        p.Seller.Normalize(),
		TokenOwner:    p.Seller.Normalize(),
		TokenContract: p.TokenContract.Normalize(),
		TokenID:       p.TokenID,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		StartPrice:    new(big.Int).Set(p.StartPrice),
		EndPrice:      new(big.Int).Set(p.EndPrice),
	}
	if err := svc.reg.Insert(rec); err != nil {
		// Reservation vanished under us; undo the custody pull.
		if rerr := svc.esc.ReturnAsset(ctx, p.TokenContract, p.Seller, p.TokenID); rerr != nil {
			zap.L().Error("create_unwind_failed",
				zap.String("auction_id", string(id)), zap.Error(rerr))
		}
		return "", err
	}

	zap.L().Info("auction_created",
		zap.String("auction_id", string(id)),
		zap.String("seller", string(rec.Seller)),
		zap.Uint64("token_id", rec.TokenID),
	)
	svc.pub.Publish(ctx, id, events.EventCreated, map[string]any{
		"seller":         string(rec.Seller),
		"token_contract": string(rec.TokenContract),
		"token_id":       rec.TokenID,
		"start_date":     rec.StartDate,
		"end_date":       rec.EndDate,
		"start_price":    rec.StartPrice.String(),
		"end_price":      rec.EndPrice.String(),
	})
	return id, nil
}

// Bid buys the token at the live price. The settlement token is taken
// before any collaborator call, so a reentrant bid or reclaim for the
// same auction observes a locked record and fails; at most one
// settlement can ever commit per id.
func (svc *dutchAuctionService) Bid(ctx context.Context, id domain.AuctionID, buyer domain.Address) error {
	if err := svc.ensureInitialized(); err != nil {
		return err
	}

	rec, err := svc.reg.BeginSettlement(id)
	if err != nil {
		return err
	}

	now := svc.nowFn().Unix()
	if now < rec.StartDate || now > rec.EndDate {
		svc.reg.AbortSettlement(id)
		return domain.ErrOutOfWindow
	}

	price := pricing.PriceAt(rec.StartDate, rec.StartPrice, rec.EndDate, rec.EndPrice, now)
	if err := svc.esc.Settle(ctx, rec.TokenContract, buyer, rec.Seller, rec.TokenID, price); err != nil {
		svc.reg.AbortSettlement(id)
		return err
	}
	svc.reg.CommitSale(id, buyer, price)

	zap.L().Info("auction_sold",
		zap.String("auction_id", string(id)),
		zap.String("buyer", string(buyer.Normalize())),
		zap.String("price", price.String()),
	)

	if sold, gerr := svc.reg.Get(id); gerr == nil {
		svc.pub.JournalSale(ctx, sold)
	}
	svc.pub.Publish(ctx, id, events.EventSold, map[string]any{
		"buyer": string(buyer.Normalize()),
		"price": price.String(),
	})
	return nil
}

// Reclaim returns an unsold token to its owner once the window has
// elapsed (strictly after endDate). Seller-only.
func (svc *dutchAuctionService) Reclaim(ctx context.Context, id domain.AuctionID, caller domain.Address) error {
	if err := svc.ensureInitialized(); err != nil {
		return err
	}

	// Authorization and the time gate are checked against a plain read
	// first, so an unauthorized caller can never take the settlement
	// token away from a legitimate one.
	rec, err := svc.reg.Get(id)
	if err != nil {
		return err
	}
	if rec.Status != domain.StatusStarted {
		return domain.ErrInvalidState
	}
	if caller.Normalize() != rec.Seller {
		return domain.ErrUnauthorized
	}
	if svc.nowFn().Unix() <= rec.EndDate {
		return domain.ErrOutOfWindow
	}

	rec, err = svc.reg.BeginSettlement(id)
	if err != nil {
		return err
	}
	if err := svc.esc.ReturnAsset(ctx, rec.TokenContract, rec.TokenOwner, rec.TokenID); err != nil {
		svc.reg.AbortSettlement(id)
		return err
	}
	svc.reg.CommitClose(id)

	zap.L().Info("auction_closed",
		zap.String("auction_id", string(id)),
		zap.String("token_owner", string(rec.TokenOwner)),
	)
	svc.pub.Publish(ctx, id, events.EventClosed, map[string]any{
		"token_owner": string(rec.TokenOwner),
	})
	return nil
}

func (svc *dutchAuctionService) GetAuction(_ context.Context, id domain.AuctionID) (*AuctionDTO, error) {
	if err := svc.ensureInitialized(); err != nil {
		return nil, err
	}
	rec, err := svc.reg.Get(id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(rec)
	return &dto, nil
}

// GetAuctionPrice reports the live price of a Started auction, clamped
// to [endPrice, startPrice] outside the window.
func (svc *dutchAuctionService) GetAuctionPrice(_ context.Context, id domain.AuctionID) (*big.Int, error) {
	if err := svc.ensureInitialized(); err != nil {
		return nil, err
	}
	rec, err := svc.reg.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusStarted {
		return nil, domain.ErrInvalidState
	}
	return pricing.ClampedPriceAt(rec.StartDate, rec.StartPrice, rec.EndDate, rec.EndPrice, svc.nowFn().Unix()), nil
}

// GetAuctionID is the pure identity derivation; it never touches state.
func (svc *dutchAuctionService) GetAuctionID(p IdentityParams) domain.AuctionID {
	return domain.DeriveAuctionID(p.Seller, p.TokenContract, p.TokenID, p.StartDate, p.StartPrice, p.EndDate)
}

func (svc *dutchAuctionService) SetEligible(_ context.Context, caller, tokenContract domain.Address, eligible bool) error {
	if err := svc.ensureInitialized(); err != nil {
		return err
	}
	return svc.guard.SetEligible(caller, tokenContract, eligible)
}

func (svc *dutchAuctionService) ListAuctions(_ context.Context, status string, limit, offset int) ([]AuctionDTO, error) {
	if err := svc.ensureInitialized(); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 10
	}

	var filter *domain.Status
	switch status {
	case "STARTED":
		st := domain.StatusStarted
		filter = &st
	case "SOLD":
		st := domain.StatusSold
		filter = &st
	case "CLOSED":
		st := domain.StatusClosed
		filter = &st
	}

	recs := svc.reg.List(filter, limit, offset)
	out := make([]AuctionDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDTO(rec))
	}
	return out, nil
}

func validateWindow(p CreateParams) error {
	if p.EndDate <= p.StartDate {
		return domain.ErrInvalidWindow
	}
	if p.StartPrice == nil || p.EndPrice == nil ||
		p.StartPrice.Sign() < 0 || p.EndPrice.Sign() < 0 {
		return domain.ErrInvalidWindow
	}
	// Ascending windows are rejected outright: this is one-way price
	// decay, not an English auction.
	if p.StartPrice.Cmp(p.EndPrice) < 0 {
		return domain.ErrInvalidWindow
	}
	return nil
}

func toDTO(rec domain.Record) AuctionDTO {
	dto := AuctionDTO{
		ID:                rec.ID,
		Seller:            rec.Seller,
		TokenOwner:        rec.TokenOwner,
		TokenContract:     rec.TokenContract,
		TokenID:           rec.TokenID,
		StartDate:         rec.StartDate,
		EndDate:           rec.EndDate,
		StartPrice:        rec.StartPrice.String(),
		EndPrice:          rec.EndPrice.String(),
		DisplayStartPrice: displayAmount(rec.StartPrice),
		DisplayEndPrice:   displayAmount(rec.EndPrice),
		Status:            rec.Status.String(),
		Buyer:             rec.Buyer,
	}
	if rec.SoldPrice != nil {
		dto.SoldPrice = rec.SoldPrice.String()
	}
	return dto
}

// displayAmount renders a wei-scale amount in whole payment-token units.
func displayAmount(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -18).String()
}
