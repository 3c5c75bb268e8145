// Package registry owns the auction records and enforces the lifecycle
// state machine:
//
//	NotAssigned -> Started -> {Sold | Closed}
//
// Sold and Closed are terminal and records are never deleted, which is
// what makes auction ids permanently single-use. All transitions are
// atomic under one lock; settlement additionally takes a per-auction
// lock token so a reentrant bid/reclaim for the same id can never settle
// twice.
package registry

import (
	"math/big"
	"sort"
	"sync"

	"dutchauctiongo/internal/domain"
)

type Registry struct {
	mu       sync.RWMutex
	auctions map[domain.AuctionID]*domain.Record
	reserved map[domain.AuctionID]struct{}
	settling map[domain.AuctionID]struct{}
}

func New() *Registry {
	return &Registry{
		auctions: make(map[domain.AuctionID]*domain.Record),
		reserved: make(map[domain.AuctionID]struct{}),
		settling: make(map[domain.AuctionID]struct{}),
	}
}

// Reserve claims an id for an in-flight create. It fails with
// ErrAlreadyExists if the id was ever assigned or another create for the
// same parameter tuple is in flight. The reservation holds the id while
// custody is pulled from the seller; Insert commits it, Release frees it
// again when the pull fails.
func (r *Registry) Reserve(id domain.AuctionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[id]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := r.reserved[id]; ok {
		return domain.ErrAlreadyExists
	}
	r.reserved[id] = struct{}{}
	return nil
}

// Release drops a reservation after a failed create. No record was ever
// assigned, so the id stays creatable.
func (r *Registry) Release(id domain.AuctionID) {
	r.mu.Lock()
	delete(r.reserved, id)
	r.mu.Unlock()
}

// Insert commits a reserved id as a Started record.
func (r *Registry) Insert(rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reserved[rec.ID]; !ok {
		return domain.ErrInvalidState
	}
	delete(r.reserved, rec.ID)

	rec.Status = domain.StatusStarted
	stored := rec.Clone()
	r.auctions[rec.ID] = &stored
	return nil
}

// Get returns a copy of the record at id.
func (r *Registry) Get(id domain.AuctionID) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.auctions[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

// BeginSettlement atomically takes the exclusive settlement token for a
// Started auction and returns a snapshot of the record. While the token
// is held, any other bid or reclaim for the same id fails with
// ErrInvalidState; this is the invariant that survives reentrant calls
// from untrusted collaborators.
func (r *Registry) BeginSettlement(id domain.AuctionID) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.auctions[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	if rec.Status != domain.StatusStarted {
		return domain.Record{}, domain.ErrInvalidState
	}
	if _, inFlight := r.settling[id]; inFlight {
		return domain.Record{}, domain.ErrInvalidState
	}
	r.settling[id] = struct{}{}
	return rec.Clone(), nil
}

// AbortSettlement returns the token after a failed settlement; the
// record stays Started, exactly as before the call.
func (r *Registry) AbortSettlement(id domain.AuctionID) {
	r.mu.Lock()
	delete(r.settling, id)
	r.mu.Unlock()
}

// CommitSale flips a settling auction to Sold and records the buyer and
// the settlement price.
func (r *Registry) CommitSale(id domain.AuctionID, buyer domain.Address, price *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.auctions[id]; ok {
		rec.Status = domain.StatusSold
		rec.Buyer = buyer.Normalize()
		rec.SoldPrice = new(big.Int).Set(price)
	}
	delete(r.settling, id)
}

// CommitClose flips a settling auction to Closed.
func (r *Registry) CommitClose(id domain.AuctionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.auctions[id]; ok {
		rec.Status = domain.StatusClosed
	}
	delete(r.settling, id)
}

// List returns record copies ordered by end date, newest window first,
// optionally filtered by status.
func (r *Registry) List(status *domain.Status, limit, offset int) []domain.Record {
	r.mu.RLock()
	out := make([]domain.Record, 0, len(r.auctions))
	for _, rec := range r.auctions {
		if status != nil && rec.Status != *status {
			continue
		}
		out = append(out, rec.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EndDate != out[j].EndDate {
			return out[i].EndDate > out[j].EndDate
		}
		return out[i].ID < out[j].ID
	})

	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Snapshot returns copies of every record, for the Postgres mirror.
func (r *Registry) Snapshot() []domain.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Record, 0, len(r.auctions))
	for _, rec := range r.auctions {
		out = append(out, rec.Clone())
	}
	return out
}
