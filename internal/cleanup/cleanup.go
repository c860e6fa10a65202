// Package cleanup removes leftover scratch files. The pipeline deletes its
// own scratch copy after every run, so anything still in the scratch
// directory is debris from a crash or kill.
package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/collegestudy/resource_downloader/internal/logctx"
)

// PurgeStale deletes regular files in dir whose modification time is older
// than keepFor. Subdirectories are left alone.
func PurgeStale(ctx context.Context, dir string, keepFor time.Duration) error {
	logger := logctx.LoggerFromContext(ctx)
	now := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			logger.Error("failed to stat scratch file", "file", filePath, "err", err)

			return err
		}

		if now.Sub(info.ModTime()) <= keepFor {
			continue
		}

		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("failed to delete stale scratch file", "file", filePath, "err", err)

			return err
		}

		logger.Info("deleted stale scratch file", "file", filePath)
	}

	return nil
}
