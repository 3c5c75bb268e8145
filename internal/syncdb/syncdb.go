package syncdb

import (
	"context"
	"database/sql"
	"time"

	"dutchauctiongo/internal/domain"
	"dutchauctiongo/internal/registry"

	"go.uber.org/zap"
)

const syncInterval = 10 * time.Second

// Every 10 s, mirror the in-memory auction registry -> Postgres. The
// mirror is read-only reporting state; the registry stays authoritative.
func Run(ctx context.Context, reg *registry.Registry, db *sql.DB) {
	tk := time.NewTicker(syncInterval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				syncOnce(ctx, reg, db)
			}
		}
	}()
}

func syncOnce(ctx context.Context, reg *registry.Registry, db *sql.DB) {
	recs := reg.Snapshot()
	if len(recs) == 0 {
		return
	}

	const upsert = `
	INSERT INTO auctions (id, seller, token_owner, token_contract, token_id,
	                      starts_at, ends_at, start_price, end_price,
	                      status, buyer, sold_price)
	     VALUES ($1,$2,$3,$4,$5,to_timestamp($6),to_timestamp($7),$8,$9,$10,$11,$12)
	ON CONFLICT (id) DO UPDATE
	       SET status=EXCLUDED.status,
	           buyer=EXCLUDED.buyer,
	           sold_price=EXCLUDED.sold_price`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		zap.L().Error("syncdb.tx_begin", zap.Error(err))
		return
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, upsert,
			string(rec.ID), string(rec.Seller), string(rec.TokenOwner),
			string(rec.TokenContract), rec.TokenID,
			rec.StartDate, rec.EndDate,
			rec.StartPrice.String(), rec.EndPrice.String(),
			rec.Status.String(), nullableAddr(rec.Buyer), nullablePrice(rec)); err != nil {
			zap.L().Error("syncdb.upsert", zap.String("id", string(rec.ID)), zap.Error(err))
		}
	}

	if err := tx.Commit(); err != nil {
		zap.L().Debug("syncdb_error", zap.Error(err))
	}
}

func nullableAddr(a domain.Address) any {
	if a == "" {
		return nil
	}
	return string(a)
}

func nullablePrice(rec domain.Record) any {
	if rec.SoldPrice == nil {
		return nil
	}
	return rec.SoldPrice.String()
}
