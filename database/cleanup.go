package database

import (
	"fmt"
	"time"

	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"go.uber.org/zap"
)

// CleanupOlderThan deletes detections with a timestamp before cutoff and returns how many were removed.
func (d *DetectionDB) CleanupOlderThan(cutoff int64) (int64, error) {
	stmt, err := d.db.Prepare("DELETE FROM detections WHERE timestamp < ?")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to execute delete statement: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// CleanupOldDetections deletes detections older than retentionDays.
func (d *DetectionDB) CleanupOldDetections(retentionDays int) (int64, error) {
	utils.Logger().Info("Starting cleanup of old detections", zap.Int("retention_days", retentionDays))

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	n, err := d.CleanupOlderThan(cutoff)
	if err != nil {
		return 0, err
	}

	utils.Logger().Info("Cleaned up old detections", zap.Int64("removed", n))
	return n, nil
}
