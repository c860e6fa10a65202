// Package pipeline drives one document from sharable link to durable local
// copy: resolve the link, stream the bytes to scratch, persist through the
// strategy chain, record the download, then hand off to a viewer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/fetch"
	"github.com/collegestudy/resource_downloader/internal/gdrive"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"github.com/collegestudy/resource_downloader/internal/persist"
	"github.com/collegestudy/resource_downloader/internal/record"
	"github.com/collegestudy/resource_downloader/internal/telemetry"
)

// Fetcher streams a resolved file id to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, fileID, destPath string, onProgress fetch.ProgressFunc) error
}

// Persister runs the persistence strategy chain over a scratch file.
type Persister interface {
	Persist(ctx context.Context, localPath, suggestedName, mimeType string) persist.Outcome
}

// UsageRecorder reports the download to the backend and reconciles the
// cached count.
type UsageRecorder interface {
	Record(ctx context.Context, doc *document.Document, userID string) (*record.Outcome, error)
}

// Opener hands files and URLs to an external viewer, best effort.
type Opener interface {
	OpenFile(ctx context.Context, path, mimeType string) error
	OpenURL(ctx context.Context, url string) error
}

// History tracks finished runs locally. Failures are logged, never surfaced.
type History interface {
	TrackDownload(documentID, kind, fileName, outcome string) error
}

// Result is what the caller shows the user after a run.
type Result struct {
	Status   persist.Status
	Location string
	Message  string

	// Count is the reconciled download count when Recorded is true.
	Count              int64
	CountAuthoritative bool
	Recorded           bool

	// OpenedExternally is set when the pipeline handed the link straight to
	// the browser instead of transferring bytes.
	OpenedExternally bool
}

type Pipeline struct {
	fetcher    Fetcher
	chain      Persister
	recorder   UsageRecorder
	opener     Opener
	history    History
	telemetry  *telemetry.Telemetry
	scratchDir string
	userID     string
}

func New(fetcher Fetcher, chain Persister, recorder UsageRecorder, opener Opener, history History, tel *telemetry.Telemetry, scratchDir, userID string) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		chain:      chain,
		recorder:   recorder,
		opener:     opener,
		history:    history,
		telemetry:  tel,
		scratchDir: scratchDir,
		userID:     userID,
	}
}

// Run takes doc through the whole pipeline. A nil error means the document
// ended up somewhere the user can reach, even if recording it failed; the
// Result message says exactly what happened.
func (p *Pipeline) Run(ctx context.Context, doc *document.Document) (*Result, error) {
	var result *Result

	err := p.telemetry.InstrumentDownload(ctx, string(doc.Kind), func(ctx context.Context) error {
		var runErr error

		result, runErr = p.run(ctx, doc)

		return runErr
	})

	return result, err
}

func (p *Pipeline) run(ctx context.Context, doc *document.Document) (*Result, error) {
	logger := logctx.LoggerFromContext(ctx).With("document_id", doc.ID, "title", doc.Title)

	fileID, ok := gdrive.ExtractFileID(doc.SourceURL)
	if !ok {
		logger.Info("link not recognized as a hosted file, opening directly")

		if err := p.opener.OpenURL(ctx, doc.SourceURL); err != nil {
			return nil, fmt.Errorf("unrecognized link could not be opened: %w", err)
		}

		return &Result{
			OpenedExternally: true,
			Message:          "This link is not a downloadable file; it was opened in your browser instead.",
		}, nil
	}

	if err := os.MkdirAll(p.scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare scratch directory: %w", err)
	}

	fileName := doc.FileName("")
	scratch := filepath.Join(p.scratchDir, fileName)

	// The scratch copy never outlives the run, whatever happens below.
	defer func() {
		if err := os.Remove(scratch); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to clean up scratch file", "path", scratch, "err", err)
		}
	}()

	if err := p.fetcher.Fetch(ctx, fileID, scratch, nil); err != nil {
		logger.Error("transfer failed, opening the file page as recovery", "err", err)

		if openErr := p.opener.OpenURL(ctx, gdrive.ViewURL(fileID)); openErr != nil {
			logger.Warn("recovery open failed", "err", openErr)
		}

		return nil, err
	}

	outcome := p.chain.Persist(ctx, scratch, fileName, doc.MIMEType())

	p.trackHistory(ctx, doc, fileName, outcome)
	p.telemetry.RecordPersistOutcome("chain", string(outcome.Status))

	switch outcome.Status {
	case persist.StatusCancelled:
		return nil, ErrPersistenceCancelled
	case persist.StatusFailed:
		return nil, ErrPersistenceFailed
	}

	result := &Result{
		Status:   outcome.Status,
		Location: outcome.Location,
	}

	p.record(ctx, doc, result)

	if outcome.Path != "" {
		if err := p.opener.OpenFile(ctx, outcome.Path, doc.MIMEType()); err != nil {
			logger.Debug("could not open persisted file in a viewer", "err", err)
		}
	}

	return result, nil
}

// record reports the download and fills in the counting part of the result.
// Recording failures never undo a completed persistence.
func (p *Pipeline) record(ctx context.Context, doc *document.Document, result *Result) {
	logger := logctx.LoggerFromContext(ctx).With("document_id", doc.ID)

	persisted := "Saved to " + result.Location
	if result.Status == persist.StatusShared {
		persisted = "Shared with another app"
	}

	rec, err := p.recorder.Record(ctx, doc, p.userID)

	switch {
	case errors.Is(err, record.ErrIdentityMissing):
		logger.Warn("download not counted, no authenticated user")
		p.telemetry.RecordRecording("skipped")

		result.Message = persisted + ". Sign in to have your downloads counted."
	case err != nil:
		logger.Error("failed to record download", "err", err)
		p.telemetry.RecordRecording("failed")

		result.Message = persisted + ", but the download could not be counted."
	default:
		result.Recorded = true
		result.Count = rec.Count
		result.CountAuthoritative = rec.Authoritative
		result.Message = persisted + "."

		if rec.Authoritative {
			p.telemetry.RecordRecording("authoritative")
		} else {
			p.telemetry.RecordRecording("optimistic")
		}
	}
}

func (p *Pipeline) trackHistory(ctx context.Context, doc *document.Document, fileName string, outcome persist.Outcome) {
	if p.history == nil {
		return
	}

	if err := p.history.TrackDownload(doc.ID, string(doc.Kind), fileName, string(outcome.Status)); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to track download history", "err", err)
	}
}
