// Package events publishes auction lifecycle events. The Redis
// implementation fans events out on the per-auction pub/sub channel the
// websocket layer subscribes to, and appends settlements to a durable
// stream consumed by the Postgres mirror.
package events

import (
	"context"
	"encoding/json"
	"time"

	"dutchauctiongo/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix = "auc:"
	channelSuffix = ":events"

	// SalesStream receives one entry per successful settlement.
	SalesStream = "sales_stream"

	// ExpiryKeyPrefix marks the TTL keys whose keyspace expiry
	// notifications drive the auction expiry watcher.
	ExpiryKeyPrefix = "auc_t:"
)

const (
	EventCreated = "created"
	EventSold    = "sold"
	EventClosed  = "closed"
	EventExpired = "expired"
)

// Publisher emits lifecycle events. Implementations must be safe for
// concurrent use; publishing is best-effort and never fails the
// operation that triggered it.
type Publisher interface {
	Publish(ctx context.Context, auctionID domain.AuctionID, event string, body map[string]any)
	JournalSale(ctx context.Context, rec domain.Record)
}

// Channel returns the pub/sub channel carrying events of one auction.
func Channel(auctionID domain.AuctionID) string {
	return channelPrefix + string(auctionID) + channelSuffix
}

type redisPublisher struct {
	rdc *redis.Client
}

func NewRedisPublisher(rdc *redis.Client) Publisher {
	return &redisPublisher{rdc: rdc}
}

func (p *redisPublisher) Publish(ctx context.Context, auctionID domain.AuctionID, event string, body map[string]any) {
	payload := map[string]any{
		"event":      event,
		"event_id":   uuid.NewString(),
		"auction_id": string(auctionID),
		"at":         time.Now().Unix(),
	}
	for k, v := range body {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Warn("event_marshal_failed", zap.Error(err))
		return
	}
	if err := p.rdc.Publish(ctx, Channel(auctionID), data).Err(); err != nil {
		zap.L().Warn("event_publish_failed",
			zap.String("auction_id", string(auctionID)), zap.Error(err))
	}

	if event == EventCreated {
		p.armExpiry(ctx, auctionID, body)
	}
}

// armExpiry plants a marker key that expires at the auction's end date.
// Its keyspace notification wakes the expiry watcher.
func (p *redisPublisher) armExpiry(ctx context.Context, auctionID domain.AuctionID, body map[string]any) {
	end, ok := body["end_date"].(int64)
	if !ok {
		return
	}
	ttl := time.Until(time.Unix(end, 0))
	if ttl <= 0 {
		return
	}
	if err := p.rdc.Set(ctx, ExpiryKeyPrefix+string(auctionID), 1, ttl).Err(); err != nil {
		zap.L().Warn("expiry_arm_failed",
			zap.String("auction_id", string(auctionID)), zap.Error(err))
	}
}

func (p *redisPublisher) JournalSale(ctx context.Context, rec domain.Record) {
	err := p.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: SalesStream,
		Values: map[string]any{
			"aid":    string(rec.ID),
			"buyer":  string(rec.Buyer),
			"seller": string(rec.Seller),
			"price":  rec.SoldPrice.String(),
			"at":     time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		zap.L().Warn("sale_journal_failed",
			zap.String("auction_id", string(rec.ID)), zap.Error(err))
	}
}

// NopPublisher drops everything; used in tests and when Redis is absent.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.AuctionID, string, map[string]any) {}
func (NopPublisher) JournalSale(context.Context, domain.Record)                        {}
