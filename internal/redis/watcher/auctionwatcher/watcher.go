package auctionwatcher

import (
	"context"
	"strings"

	"dutchauctiongo/internal/domain"
	"dutchauctiongo/internal/events"
	"dutchauctiongo/internal/registry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run listens to key-expiry notifications and announces auctions whose
// window closed without a sale. Expiry changes nothing in the registry;
// past the end date bids are rejected on their own and the seller may
// reclaim at any time. Run must be started once at service boot.
func Run(ctx context.Context, rdb *redis.Client, reg *registry.Registry, pub events.Publisher) {
	_ = rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
	ps := rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	for {
		select {
		case <-ctx.Done():
			_ = ps.Close()
			return
		case m := <-ps.Channel():
			if !strings.HasPrefix(m.Payload, events.ExpiryKeyPrefix) {
				continue
			}
			id := domain.AuctionID(strings.TrimPrefix(m.Payload, events.ExpiryKeyPrefix))
			announce(ctx, reg, pub, id)
		}
	}
}

func announce(ctx context.Context, reg *registry.Registry, pub events.Publisher, id domain.AuctionID) {
	rec, err := reg.Get(id)
	if err != nil {
		return
	}
	// Sold or reclaimed before the marker expired: nothing to announce.
	if rec.Status != domain.StatusStarted {
		return
	}
	zap.L().Info("auction_expired", zap.String("auction_id", string(id)))
	pub.Publish(ctx, id, events.EventExpired, map[string]any{
		"seller":   string(rec.Seller),
		"end_date": rec.EndDate,
	})
}
