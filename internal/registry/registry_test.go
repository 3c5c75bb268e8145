package registry

import (
	"math/big"
	"testing"

	"dutchauctiongo/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func started(id domain.AuctionID) domain.Record {
	return domain.Record{
		ID:            id,
		Seller:        "0x1111111111111111111111111111111111111111",
		TokenOwner:    "0x1111111111111111111111111111111111111111",
		TokenContract: "0x2222222222222222222222222222222222222222",
		TokenID:       1,
		StartDate:     100,
		EndDate:       200,
		StartPrice:    big.NewInt(1000),
		EndPrice:      big.NewInt(10),
	}
}

func mustInsert(t *testing.T, r *Registry, id domain.AuctionID) {
	t.Helper()
	require.NoError(t, r.Reserve(id))
	require.NoError(t, r.Insert(started(id)))
}

func TestReserve_OncePerID(t *testing.T) {
	r := New()

	require.NoError(t, r.Reserve("0xa"))
	assert.ErrorIs(t, r.Reserve("0xa"), domain.ErrAlreadyExists)

	// Released reservations are creatable again.
	r.Release("0xa")
	require.NoError(t, r.Reserve("0xa"))
}

func TestInsert_RequiresReservation(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Insert(started("0xa")), domain.ErrInvalidState)
}

func TestReserve_FailsForeverAfterInsert(t *testing.T) {
	r := New()
	mustInsert(t, r, "0xa")

	assert.ErrorIs(t, r.Reserve("0xa"), domain.ErrAlreadyExists)

	// Terminal states do not free the id either.
	_, err := r.BeginSettlement("0xa")
	require.NoError(t, err)
	r.CommitSale("0xa", "0x3333333333333333333333333333333333333333", big.NewInt(500))
	assert.ErrorIs(t, r.Reserve("0xa"), domain.ErrAlreadyExists)
}

func TestGet_Unknown(t *testing.T) {
	r := New()
	_, err := r.Get("0xdead")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := New()
	mustInsert(t, r, "0xa")

	rec, err := r.Get("0xa")
	require.NoError(t, err)
	rec.StartPrice.SetInt64(7)
	rec.Status = domain.StatusClosed

	again, err := r.Get("0xa")
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1000).Cmp(again.StartPrice))
	assert.Equal(t, domain.StatusStarted, again.Status)
}

func TestSettlement_TokenIsExclusive(t *testing.T) {
	r := New()
	mustInsert(t, r, "0xa")

	_, err := r.BeginSettlement("0xa")
	require.NoError(t, err)

	// A nested settlement attempt (e.g. reentrant bid) must fail while
	// the token is held.
	_, err = r.BeginSettlement("0xa")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// Abort restores Started and the token becomes takeable again.
	r.AbortSettlement("0xa")
	rec, err := r.Get("0xa")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, rec.Status)

	_, err = r.BeginSettlement("0xa")
	assert.NoError(t, err)
}

func TestCommitSale(t *testing.T) {
	r := New()
	mustInsert(t, r, "0xa")

	_, err := r.BeginSettlement("0xa")
	require.NoError(t, err)
	r.CommitSale("0xa", "0x3333333333333333333333333333333333333333", big.NewInt(123))

	rec, err := r.Get("0xa")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, rec.Status)
	assert.Equal(t, domain.Address("0x3333333333333333333333333333333333333333"), rec.Buyer)
	assert.Zero(t, big.NewInt(123).Cmp(rec.SoldPrice))

	// Terminal: no further settlement possible.
	_, err = r.BeginSettlement("0xa")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCommitClose(t *testing.T) {
	r := New()
	mustInsert(t, r, "0xa")

	_, err := r.BeginSettlement("0xa")
	require.NoError(t, err)
	r.CommitClose("0xa")

	rec, err := r.Get("0xa")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, rec.Status)

	_, err = r.BeginSettlement("0xa")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestList_FilterAndOrder(t *testing.T) {
	r := New()
	for i, id := range []domain.AuctionID{"0xa", "0xb", "0xc"} {
		require.NoError(t, r.Reserve(id))
		rec := started(id)
		rec.EndDate = int64(200 + i)
		require.NoError(t, r.Insert(rec))
	}
	_, err := r.BeginSettlement("0xb")
	require.NoError(t, err)
	r.CommitClose("0xb")

	all := r.List(nil, 0, 0)
	require.Len(t, all, 3)
	assert.Equal(t, domain.AuctionID("0xc"), all[0].ID) // newest window first

	st := domain.StatusStarted
	live := r.List(&st, 10, 0)
	require.Len(t, live, 2)

	page := r.List(nil, 1, 1)
	require.Len(t, page, 1)
	assert.Equal(t, domain.AuctionID("0xb"), page[0].ID)

	assert.Empty(t, r.List(nil, 10, 5))
}
