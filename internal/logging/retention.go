package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneOldFiles removes files in dir matching pattern whose modification time
// is older than retentionDays. The file named keep is never removed. A
// retentionDays value of 0 disables pruning. It returns the number of files
// removed.
func PruneOldFiles(logger *slog.Logger, dir, pattern string, retentionDays int, keep string) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}
	removed := 0
	for _, path := range matches {
		if keep != "" && filepath.Clean(path) == filepath.Clean(keep) {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
