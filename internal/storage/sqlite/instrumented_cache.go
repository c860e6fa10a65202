package sqlite

import (
	"context"
	"database/sql"

	"github.com/collegestudy/resource_downloader/internal/storage"
	"github.com/collegestudy/resource_downloader/internal/telemetry"
)

// InstrumentedCountCache wraps CountCache with telemetry.
type InstrumentedCountCache struct {
	cache     *CountCache
	telemetry *telemetry.Telemetry
}

func NewInstrumentedCountCache(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedCountCache {
	return &InstrumentedCountCache{
		cache:     NewCountCache(dbConn),
		telemetry: tel,
	}
}

func (c *InstrumentedCountCache) CachedCount(documentID string) (int64, error) {
	var result int64

	var err error

	instrumentedErr := c.telemetry.InstrumentDBOperation(context.Background(), "cached_count", func(ctx context.Context) error {
		result, err = c.cache.CachedCount(documentID)

		return err
	})

	if instrumentedErr != nil {
		return 0, instrumentedErr
	}

	return result, nil
}

func (c *InstrumentedCountCache) SetCachedCount(documentID string, count int64) error {
	return c.telemetry.InstrumentDBOperation(context.Background(), "set_cached_count", func(ctx context.Context) error {
		return c.cache.SetCachedCount(documentID, count)
	})
}

func (c *InstrumentedCountCache) AdvanceCount(documentID string) (int64, error) {
	var result int64

	var err error

	instrumentedErr := c.telemetry.InstrumentDBOperation(context.Background(), "advance_count", func(ctx context.Context) error {
		result, err = c.cache.AdvanceCount(documentID)

		return err
	})

	if instrumentedErr != nil {
		return 0, instrumentedErr
	}

	return result, nil
}

// InstrumentedHistoryRepository wraps HistoryRepository with telemetry.
type InstrumentedHistoryRepository struct {
	repo      *HistoryRepository
	telemetry *telemetry.Telemetry
}

func NewInstrumentedHistoryRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedHistoryRepository {
	return &InstrumentedHistoryRepository{
		repo:      NewHistoryRepository(dbConn),
		telemetry: tel,
	}
}

func (r *InstrumentedHistoryRepository) TrackDownload(documentID, kind, fileName, outcome string) error {
	return r.telemetry.InstrumentDBOperation(context.Background(), "track_download", func(ctx context.Context) error {
		return r.repo.TrackDownload(documentID, kind, fileName, outcome)
	})
}

func (r *InstrumentedHistoryRepository) GetHistory() ([]storage.HistoryRecord, error) {
	var result []storage.HistoryRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "get_history", func(ctx context.Context) error {
		result, err = r.repo.GetHistory()

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

func (r *InstrumentedHistoryRepository) HasDownloaded(documentID string) (bool, error) {
	var result bool

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "has_downloaded", func(ctx context.Context) error {
		result, err = r.repo.HasDownloaded(documentID)

		return err
	})

	if instrumentedErr != nil {
		return false, instrumentedErr
	}

	return result, nil
}
