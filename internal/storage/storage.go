package storage

import "errors"

// ErrNotCached signals that no count has been cached for a document yet.
var ErrNotCached = errors.New("download count not cached")

// HistoryRecord is one completed acquisition on this device.
type HistoryRecord struct {
	DocumentID   string
	Kind         string
	FileName     string
	Outcome      string
	DownloadedAt string
}

// HistoryRepository tracks which documents this device has acquired.
type HistoryRepository interface {
	TrackDownload(documentID, kind, fileName, outcome string) error
	GetHistory() ([]HistoryRecord, error)
	HasDownloaded(documentID string) (bool, error)
}

// CountCache holds the locally cached download counts shown to the user. The
// cache only ever advances: authoritative server reads overwrite forward,
// optimistic bumps add exactly one.
type CountCache interface {
	CachedCount(documentID string) (int64, error)
	SetCachedCount(documentID string, count int64) error
	AdvanceCount(documentID string) (int64, error)
}
