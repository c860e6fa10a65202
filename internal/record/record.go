// Package record reports a completed acquisition to the backend and keeps
// the locally cached download count reconciled with the server.
package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"github.com/collegestudy/resource_downloader/internal/storage"
)

// ErrIdentityMissing means no authenticated user was available at recording
// time. The download stays saved; the caller must surface that it was not
// counted.
var ErrIdentityMissing = errors.New("no authenticated user, download not recorded")

// RecordingError means both the rich tracking call and the increment
// fallback failed. The local counter must not be advanced.
type RecordingError struct {
	DocumentID   string
	TrackErr     error
	IncrementErr error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("failed to record download of %s: tracking and increment both failed", e.DocumentID)
}

func (e *RecordingError) Unwrap() error {
	return e.IncrementErr
}

// Backend is the subset of the hosted backend the recorder needs.
type Backend interface {
	TrackDownload(ctx context.Context, kind document.Kind, docID, userID string) error
	IncrementDownloadCount(ctx context.Context, kind document.Kind, docID string) error
	DownloadCount(ctx context.Context, kind document.Kind, docID string) (int64, error)
}

// Outcome reports how the local counter was reconciled after a successful
// record: with the authoritative server value, or an optimistic +1.
type Outcome struct {
	Count         int64
	Authoritative bool
}

type Recorder struct {
	backend Backend
	counts  storage.CountCache
}

func NewRecorder(backend Backend, counts storage.CountCache) *Recorder {
	return &Recorder{backend: backend, counts: counts}
}

// Record reports the acquisition of doc by userID. The rich tracking call is
// attempted first, then the increment-only fallback; if both fail the local
// counter is left untouched and a RecordingError is returned.
func (r *Recorder) Record(ctx context.Context, doc *document.Document, userID string) (*Outcome, error) {
	logger := logctx.LoggerFromContext(ctx).With("document_id", doc.ID, "kind", string(doc.Kind))

	if userID == "" {
		return nil, ErrIdentityMissing
	}

	trackErr := r.backend.TrackDownload(ctx, doc.Kind, doc.ID, userID)
	if trackErr != nil {
		logger.Warn("rich tracking call failed, falling back to increment", "err", trackErr)

		if incrementErr := r.backend.IncrementDownloadCount(ctx, doc.Kind, doc.ID); incrementErr != nil {
			return nil, &RecordingError{DocumentID: doc.ID, TrackErr: trackErr, IncrementErr: incrementErr}
		}
	}

	return r.reconcile(ctx, doc)
}

// reconcile overwrites the cached count with a fresh authoritative read, or
// advances it optimistically by exactly one when the read-back fails.
func (r *Recorder) reconcile(ctx context.Context, doc *document.Document) (*Outcome, error) {
	logger := logctx.LoggerFromContext(ctx).With("document_id", doc.ID)

	count, err := r.backend.DownloadCount(ctx, doc.Kind, doc.ID)
	if err == nil {
		if err := r.counts.SetCachedCount(doc.ID, count); err != nil {
			logger.Warn("failed to cache authoritative count", "err", err)
		}

		return &Outcome{Count: count, Authoritative: true}, nil
	}

	logger.Warn("authoritative count read-back failed, advancing optimistically", "err", err)

	// Seed the cache with the pre-run value so the optimistic bump is
	// exactly one ahead of what the user last saw.
	if _, cacheErr := r.counts.CachedCount(doc.ID); errors.Is(cacheErr, storage.ErrNotCached) {
		if err := r.counts.SetCachedCount(doc.ID, doc.DownloadCount); err != nil {
			logger.Warn("failed to seed cached count", "err", err)
		}
	}

	advanced, err := r.counts.AdvanceCount(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to advance cached count: %w", err)
	}

	return &Outcome{Count: advanced, Authoritative: false}, nil
}
