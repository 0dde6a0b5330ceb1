package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartSoftDeleteCleaner purges soft-deleted tickets older than retention
// on the given interval. Tickets are never deleted through the UI, but the
// delete capability exists at the API level; this keeps the table from
// accumulating tombstones forever.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM tickets
                     WHERE deleted = true
                       AND deleted_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean soft-deleted tickets", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned soft-deleted tickets", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
