package pipeline

import (
	"fmt"
	"sync"

	"context"

	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"golang.org/x/sync/errgroup"
)

// FinishedEvent is emitted when a document lands somewhere durable.
type FinishedEvent struct {
	Document *document.Document
	Result   *Result
}

// ErrorEvent is emitted when a run fails terminally.
type ErrorEvent struct {
	Document *document.Document
	Err      error
}

// Runner fans a batch of documents through the pipeline with bounded
// parallelism. A document already in flight is skipped, not queued twice.
type Runner struct {
	pipeline    *Pipeline
	maxParallel int

	mu   sync.Mutex
	busy map[string]struct{}

	OnDownloadFinished chan FinishedEvent
	OnDownloadError    chan ErrorEvent
}

func NewRunner(p *Pipeline, maxParallel int) *Runner {
	if maxParallel < 1 {
		maxParallel = 1
	}

	return &Runner{
		pipeline:           p,
		maxParallel:        maxParallel,
		busy:               make(map[string]struct{}),
		OnDownloadFinished: make(chan FinishedEvent),
		OnDownloadError:    make(chan ErrorEvent),
	}
}

func (r *Runner) Close() {
	close(r.OnDownloadFinished)
	close(r.OnDownloadError)
}

// Busy reports whether a run for the document is currently in flight.
func (r *Runner) Busy(documentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.busy[documentID]

	return ok
}

func (r *Runner) acquire(documentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.busy[documentID]; ok {
		return false
	}

	r.busy[documentID] = struct{}{}

	return true
}

func (r *Runner) release(documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.busy, documentID)
}

// RunAll drives every document through the pipeline, at most maxParallel at
// a time, and returns how many landed durably. Individual failures are
// reported on the event channels; only a cancelled context fails the batch.
func (r *Runner) RunAll(ctx context.Context, docs []*document.Document) (int, error) {
	logger := logctx.LoggerFromContext(ctx)

	var finished int

	var finishedMu sync.Mutex

	wg, ctx := errgroup.WithContext(ctx)

	sem := make(chan struct{}, r.maxParallel)

	for i := range docs {
		doc := docs[i]

		if !r.acquire(doc.ID) {
			logger.Debug("download already in flight, skipping", "document_id", doc.ID)

			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			r.release(doc.ID)

			return finished, ctx.Err()
		}

		wg.Go(func() error {
			defer func() { <-sem }() // release the slot
			defer r.release(doc.ID)

			result, err := r.pipeline.Run(ctx, doc)
			if err != nil {
				logger.Error("failed to download document", "document_id", doc.ID, "err", err)

				r.emitError(ctx, ErrorEvent{Document: doc, Err: err})

				return nil
			}

			if result.OpenedExternally {
				return nil
			}

			finishedMu.Lock()
			finished++
			finishedMu.Unlock()

			r.emitFinished(ctx, FinishedEvent{Document: doc, Result: result})

			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return finished, fmt.Errorf("batch download failed: %w", err)
	}

	return finished, nil
}

func (r *Runner) emitFinished(ctx context.Context, ev FinishedEvent) {
	select {
	case r.OnDownloadFinished <- ev:
	case <-ctx.Done():
	}
}

func (r *Runner) emitError(ctx context.Context, ev ErrorEvent) {
	select {
	case r.OnDownloadError <- ev:
	case <-ctx.Done():
	}
}
