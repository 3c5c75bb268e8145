package auction

import (
	"context"
	"math/big"
	"testing"
	"time"

	"dutchauctiongo/internal/accessguard"
	"dutchauctiongo/internal/domain"
	"dutchauctiongo/internal/escrow"
	"dutchauctiongo/internal/escrow/escrowtest"
	"dutchauctiongo/internal/events"
	"dutchauctiongo/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin      = domain.Address("0xadadadadadadadadadadadadadadadadadadadad")
	escrowAcct = domain.Address("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	seller     = domain.Address("0x1111111111111111111111111111111111111111")
	buyer      = domain.Address("0x3333333333333333333333333333333333333333")
	nft        = domain.Address("0x2222222222222222222222222222222222222222")
	payToken   = domain.Address("0x4444444444444444444444444444444444444444")
)

type fixture struct {
	svc       *dutchAuctionService
	custodian *escrowtest.MemCustodian
	ledger    *escrowtest.MemLedger
	now       int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		custodian: escrowtest.NewMemCustodian(escrowAcct),
		ledger:    escrowtest.NewMemLedger(escrowAcct),
		now:       1_000,
	}
	guard := accessguard.New(admin)
	svc := NewAuctionService(
		guard,
		registry.New(),
		escrow.New(f.custodian, f.ledger),
		events.NopPublisher{},
	).(*dutchAuctionService)
	svc.nowFn = func() time.Time { return time.Unix(f.now, 0) }
	f.svc = svc

	require.NoError(t, svc.Initialize(context.Background(), payToken))
	require.NoError(t, svc.SetEligible(context.Background(), admin, nft, true))
	return f
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func (f *fixture) params() CreateParams {
	return CreateParams{
		Seller:        seller,
		AssetKind:     domain.AssetKindERC721,
		TokenContract: nft,
		TokenID:       1,
		StartDate:     f.now + 5,
		StartPrice:    eth(10),
		EndDate:       f.now + 5 + 1_000_000,
		EndPrice:      eth(1),
	}
}

func (f *fixture) mintAndApprove(tokenID uint64) {
	f.custodian.Mint(nft, seller, tokenID)
	f.custodian.Approve(nft, escrowAcct, tokenID)
}

func (f *fixture) create(t *testing.T) domain.AuctionID {
	t.Helper()
	f.mintAndApprove(1)
	id, err := f.svc.CreateAuction(context.Background(), f.params())
	require.NoError(t, err)
	return id
}

func (f *fixture) fundBuyer(t *testing.T, amount *big.Int) {
	t.Helper()
	f.ledger.Mint(buyer, amount)
	f.ledger.ApproveSpend(buyer, amount)
}

func TestInitialize_Once(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Initialize(context.Background(), payToken)
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)
}

func TestUninitialized_Refuses(t *testing.T) {
	svc := NewAuctionService(
		accessguard.New(admin),
		registry.New(),
		escrow.New(escrowtest.NewMemCustodian(escrowAcct), escrowtest.NewMemLedger(escrowAcct)),
		events.NopPublisher{},
	)

	_, err := svc.CreateAuction(context.Background(), CreateParams{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, svc.Bid(context.Background(), "0xa", buyer), domain.ErrInvalidState)
}

func TestCreateAuction_HappyPath(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	// Identity is the pure derivation over the same six parameters.
	p := f.params()
	assert.Equal(t, f.svc.GetAuctionID(IdentityParams{
		Seller: p.Seller, TokenContract: p.TokenContract, TokenID: p.TokenID,
		StartDate: p.StartDate, StartPrice: p.StartPrice, EndDate: p.EndDate,
	}), id)

	dto, err := f.svc.GetAuction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "STARTED", dto.Status)
	assert.Equal(t, seller, dto.Seller)
	assert.Equal(t, seller, dto.TokenOwner)
	assert.Equal(t, "10", dto.DisplayStartPrice)

	owner, err := f.custodian.OwnerOf(context.Background(), nft, 1)
	require.NoError(t, err)
	assert.Equal(t, escrowAcct, owner, "token must be in escrow custody")
}

func TestCreateAuction_Validation(t *testing.T) {
	f := newFixture(t)
	f.mintAndApprove(1)

	cases := []struct {
		name   string
		mutate func(*CreateParams)
		want   error
	}{
		{"window inverted", func(p *CreateParams) { p.EndDate = p.StartDate }, domain.ErrInvalidWindow},
		{"ascending prices", func(p *CreateParams) { p.StartPrice, p.EndPrice = eth(1), eth(10) }, domain.ErrInvalidWindow},
		{"negative price", func(p *CreateParams) { p.EndPrice = big.NewInt(-1) }, domain.ErrInvalidWindow},
		{"unsupported asset kind", func(p *CreateParams) { p.AssetKind = 9 }, domain.ErrUnauthorized},
		{"ineligible contract", func(p *CreateParams) {
			p.TokenContract = "0x9999999999999999999999999999999999999999"
		}, domain.ErrUnauthorized},
		{"seller not owner", func(p *CreateParams) {
			p.Seller = buyer
		}, domain.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := f.params()
			tc.mutate(&p)
			_, err := f.svc.CreateAuction(context.Background(), p)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateAuction_EqualPricesAllowed(t *testing.T) {
	f := newFixture(t)
	f.mintAndApprove(1)

	p := f.params()
	p.StartPrice, p.EndPrice = eth(3), eth(3)
	_, err := f.svc.CreateAuction(context.Background(), p)
	assert.NoError(t, err)
}

func TestCreateAuction_DuplicateTupleFailsForever(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	// Back-to-back duplicate.
	_, err := f.svc.CreateAuction(context.Background(), f.params())
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Still a duplicate after the first auction reached a terminal
	// state and arbitrary time elapsed.
	p := f.params()
	f.fundBuyer(t, eth(10))
	f.now = p.StartDate + 10
	require.NoError(t, f.svc.Bid(context.Background(), id, buyer))

	f.now = p.EndDate + 1_000_000
	_, err = f.svc.CreateAuction(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreateAuction_FailedPullLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	f.custodian.Mint(nft, seller, 1) // no approval: the pull will fail

	_, err := f.svc.CreateAuction(context.Background(), f.params())
	require.ErrorIs(t, err, domain.ErrTransferFailed)

	// The id was never assigned, so the same tuple is creatable once
	// the approval is in place.
	f.custodian.Approve(nft, escrowAcct, 1)
	_, err = f.svc.CreateAuction(context.Background(), f.params())
	assert.NoError(t, err)
}

func TestBid_HappyPath(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	p := f.params()

	f.fundBuyer(t, eth(10))
	f.now = p.StartDate + 500_000 // halfway: price is 5.5 ETH

	require.NoError(t, f.svc.Bid(context.Background(), id, buyer))

	dto, err := f.svc.GetAuction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "SOLD", dto.Status)
	assert.Equal(t, buyer, dto.Buyer)
	assert.Equal(t, "5500000000000000000", dto.SoldPrice)

	owner, _ := f.custodian.OwnerOf(context.Background(), nft, 1)
	assert.Equal(t, buyer, owner)

	buyerBal, _ := f.ledger.BalanceOf(context.Background(), buyer)
	sellerBal, _ := f.ledger.BalanceOf(context.Background(), seller)
	assert.Zero(t, eth(10).Sub(eth(10), dtoPrice(t, dto)).Cmp(buyerBal),
		"buyer pays exactly the settlement price")
	assert.Zero(t, dtoPrice(t, dto).Cmp(sellerBal))
}

func dtoPrice(t *testing.T, dto *AuctionDTO) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(dto.SoldPrice, 10)
	require.True(t, ok)
	return v
}

func TestBid_WindowBoundaries(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	p := f.params()
	f.fundBuyer(t, eth(20))

	// Before the window opens.
	f.now = p.StartDate - 1
	assert.ErrorIs(t, f.svc.Bid(context.Background(), id, buyer), domain.ErrOutOfWindow)

	// After the window closed.
	f.now = p.EndDate + 1
	assert.ErrorIs(t, f.svc.Bid(context.Background(), id, buyer), domain.ErrOutOfWindow)

	// Exactly at endDate the floor price is still buyable.
	f.now = p.EndDate
	require.NoError(t, f.svc.Bid(context.Background(), id, buyer))

	dto, err := f.svc.GetAuction(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, eth(1).Cmp(dtoPrice(t, dto)))
}

func TestBid_Failures(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	p := f.params()
	f.now = p.StartDate + 10

	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Bid(context.Background(), "0xdead", buyer), domain.ErrNotFound)
	})

	t.Run("insufficient funds keeps auction live", func(t *testing.T) {
		f.ledger.ApproveSpend(buyer, eth(100))
		assert.ErrorIs(t, f.svc.Bid(context.Background(), id, buyer), domain.ErrInsufficientFunds)

		dto, err := f.svc.GetAuction(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "STARTED", dto.Status)
	})

	t.Run("sold auction rejects further bids", func(t *testing.T) {
		f.fundBuyer(t, eth(10))
		require.NoError(t, f.svc.Bid(context.Background(), id, buyer))
		assert.ErrorIs(t, f.svc.Bid(context.Background(), id, buyer), domain.ErrInvalidState)
	})
}

func TestBid_ReentrantSettlementCannotDoubleSettle(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	p := f.params()

	// Fund generously so a second settlement would succeed if the
	// lock token failed to hold.
	f.fundBuyer(t, eth(50))
	f.now = p.StartDate + 10

	var reentrant error
	fired := false
	f.custodian.OnPush = func() {
		if fired {
			return
		}
		fired = true
		reentrant = f.svc.Bid(context.Background(), id, buyer)
	}

	require.NoError(t, f.svc.Bid(context.Background(), id, buyer))
	assert.ErrorIs(t, reentrant, domain.ErrInvalidState)

	// Exactly one debit happened.
	dto, err := f.svc.GetAuction(context.Background(), id)
	require.NoError(t, err)
	buyerBal, _ := f.ledger.BalanceOf(context.Background(), buyer)
	want := new(big.Int).Sub(eth(50), dtoPrice(t, dto))
	assert.Zero(t, want.Cmp(buyerBal))
}

func TestReclaim(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	p := f.params()

	// Window not elapsed (inclusive endDate still counts as live).
	f.now = p.EndDate
	assert.ErrorIs(t, f.svc.Reclaim(context.Background(), id, seller), domain.ErrOutOfWindow)

	f.now = p.EndDate + 1

	// Only the seller may reclaim.
	assert.ErrorIs(t, f.svc.Reclaim(context.Background(), id, buyer), domain.ErrUnauthorized)

	require.NoError(t, f.svc.Reclaim(context.Background(), id, seller))

	dto, err := f.svc.GetAuction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", dto.Status)

	owner, _ := f.custodian.OwnerOf(context.Background(), nft, 1)
	assert.Equal(t, seller, owner, "custody returns to the original owner")

	// Terminal state: no second reclaim, no late bid.
	assert.ErrorIs(t, f.svc.Reclaim(context.Background(), id, seller), domain.ErrInvalidState)
	assert.ErrorIs(t, f.svc.Bid(context.Background(), id, buyer), domain.ErrInvalidState)
}

func TestReclaim_UnknownID(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.Reclaim(context.Background(), "0xdead", seller), domain.ErrNotFound)
}

func TestGetAuctionPrice(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	p := f.params()

	// Clamped to startPrice before the window opens.
	f.now = p.StartDate - 100
	price, err := f.svc.GetAuctionPrice(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, eth(10).Cmp(price))

	// Clamped to endPrice after it closes.
	f.now = p.EndDate + 100
	price, err = f.svc.GetAuctionPrice(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, eth(1).Cmp(price))

	// Not meaningful once terminal.
	require.NoError(t, f.svc.Reclaim(context.Background(), id, seller))
	_, err = f.svc.GetAuctionPrice(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.GetAuctionPrice(context.Background(), "0xdead")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAuctions(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	p := f.params()

	f.fundBuyer(t, eth(10))
	f.now = p.StartDate + 10
	require.NoError(t, f.svc.Bid(context.Background(), id, buyer))

	sold, err := f.svc.ListAuctions(context.Background(), "SOLD", 0, 0)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, id, sold[0].ID)

	live, err := f.svc.ListAuctions(context.Background(), "STARTED", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, live)
}
