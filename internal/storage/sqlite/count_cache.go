package sqlite

import (
	"database/sql"

	"github.com/collegestudy/resource_downloader/internal/storage"
)

// CountCache stores locally cached download counts. Counts are monotone:
// regressions from stale server reads are ignored.
type CountCache struct {
	db *sql.DB
}

func NewCountCache(dbConn *sql.DB) *CountCache {
	return &CountCache{db: dbConn}
}

func (c *CountCache) CachedCount(documentID string) (int64, error) {
	var count int64

	err := c.db.QueryRow(`SELECT count FROM download_counts WHERE document_id = ?`, documentID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, storage.ErrNotCached
	}

	if err != nil {
		return 0, err
	}

	return count, nil
}

// SetCachedCount overwrites the cached count with an authoritative server
// value, unless that value would move the cache backwards.
func (c *CountCache) SetCachedCount(documentID string, count int64) error {
	_, err := c.db.Exec(`
		INSERT INTO download_counts (document_id, count)
		VALUES (?, ?)
		ON CONFLICT(document_id) DO UPDATE SET count = excluded.count
		WHERE excluded.count > download_counts.count
	`, documentID, count)

	return err
}

// AdvanceCount bumps the cached count optimistically by exactly one and
// returns the new value.
func (c *CountCache) AdvanceCount(documentID string) (int64, error) {
	_, err := c.db.Exec(`
		INSERT INTO download_counts (document_id, count)
		VALUES (?, 1)
		ON CONFLICT(document_id) DO UPDATE SET count = download_counts.count + 1
	`, documentID)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := c.db.QueryRow(`SELECT count FROM download_counts WHERE document_id = ?`, documentID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
