package sqlite

import (
	"database/sql"
	"time"

	"github.com/collegestudy/resource_downloader/internal/storage"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(dbConn *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: dbConn}
}

func (r *HistoryRepository) TrackDownload(documentID, kind, fileName, outcome string) error {
	_, err := r.db.Exec(
		`INSERT INTO downloads (document_id, kind, file_name, outcome, downloaded_at) VALUES (?, ?, ?, ?, ?)`,
		documentID, kind, fileName, outcome, time.Now().Format(time.RFC3339),
	)

	return err
}

func (r *HistoryRepository) GetHistory() ([]storage.HistoryRecord, error) {
	rows, err := r.db.Query(`SELECT document_id, kind, file_name, outcome, downloaded_at FROM downloads ORDER BY downloaded_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []storage.HistoryRecord

	for rows.Next() {
		var record storage.HistoryRecord
		if err := rows.Scan(&record.DocumentID, &record.Kind, &record.FileName, &record.Outcome, &record.DownloadedAt); err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// HasDownloaded reports whether a successful acquisition of the document has
// been recorded on this device.
func (r *HistoryRepository) HasDownloaded(documentID string) (bool, error) {
	var count int

	err := r.db.QueryRow(
		`SELECT COUNT(1) FROM downloads WHERE document_id = ? AND outcome IN ('saved', 'shared')`,
		documentID,
	).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
