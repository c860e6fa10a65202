package sqlite

import (
	"database/sql"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at path and creates the tables if they
// don't exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY,
		document_id TEXT,
		kind TEXT,
		file_name TEXT,
		outcome TEXT,
		downloaded_at DATETIME
	)`)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS download_counts (
		document_id TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return nil, err
	}

	return db, nil
}
