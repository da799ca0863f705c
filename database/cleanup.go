package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CleanupOldEvents deletes journal entries older than retentionDays.
func CleanupOldEvents(ctx context.Context, db *sql.DB, retentionDays int, logger *zap.Logger) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()

	stmt, err := db.PrepareContext(ctx, "DELETE FROM journal WHERE created_at < ?")
	if err != nil {
		return 0, fmt.Errorf("error preparing journal cleanup: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error executing journal cleanup: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}

	logger.Info("journal cleanup finished",
		zap.Int64("removed", rowsAffected),
		zap.Int("retention_days", retentionDays))
	return rowsAffected, nil
}
