package syncsales

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"dutchauctiongo/internal/events"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run tails the sales stream and persists every settlement. Sales are
// journalled by the auction service at commit time; the Postgres copy
// feeds offline reporting.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	go func() {
		lastID := "0-0"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// block up to 2 s for new entries
			res, err := rdc.XRead(ctx, &redis.XReadArgs{
				Streams: []string{events.SalesStream, lastID},
				Count:   100,
				Block:   2000 * time.Millisecond,
			}).Result()
			if err != nil && err != redis.Nil {
				zap.L().Warn("syncsales.xread", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(res) == 0 {
				continue
			}
			entries := res[0].Messages
			if err := persist(ctx, db, entries); err != nil {
				zap.L().Error("syncsales.persist", zap.Error(err))
			}
			lastID = entries[len(entries)-1].ID
		}
	}()
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO sales (auction_id, buyer, seller, price, sold_at)
	             VALUES ($1, $2, $3, $4, to_timestamp($5))
	             ON CONFLICT DO NOTHING`
	for _, m := range msgs {
		aid, _ := m.Values["aid"].(string)
		buyer, _ := m.Values["buyer"].(string)
		seller, _ := m.Values["seller"].(string)
		price, _ := m.Values["price"].(string)
		at, _ := m.Values["at"].(string)

		ts, _ := strconv.ParseInt(at, 10, 64)
		if _, err := tx.ExecContext(ctx, ins, aid, buyer, seller, price, ts); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
