package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/collegestudy/resource_downloader/internal/backend/supabase"
	"github.com/collegestudy/resource_downloader/internal/config"
	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/fetch"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"github.com/collegestudy/resource_downloader/internal/notifier"
	"github.com/collegestudy/resource_downloader/internal/opener"
	"github.com/collegestudy/resource_downloader/internal/persist"
	"github.com/collegestudy/resource_downloader/internal/persist/local"
	"github.com/collegestudy/resource_downloader/internal/pipeline"
	"github.com/collegestudy/resource_downloader/internal/record"
	"github.com/collegestudy/resource_downloader/internal/storage/sqlite"
	"github.com/collegestudy/resource_downloader/internal/telemetry"
)

const fetchTimeout = 10 * time.Minute

// app is the assembled toolkit behind every subcommand.
type app struct {
	cfg     *config.Config
	backend *supabase.InstrumentedClient
	db      *sql.DB
	history *sqlite.InstrumentedHistoryRepository
	runner  *pipeline.Runner
	userID  string
}

// buildApp wires the backend client, local state, persistence chain and
// pipeline runner from configuration. tel may be nil outside watch mode.
func buildApp(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry) (*app, error) {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Database
	database, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	history := sqlite.NewInstrumentedHistoryRepository(database, tel)
	counts := sqlite.NewInstrumentedCountCache(database, tel)

	// =========================================================================
	// Start Backend Client
	backend := supabase.NewInstrumentedClient(
		supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAPIKey, cfg.SupabaseAccessToken),
		tel,
	)

	var userID string

	if cfg.SupabaseAccessToken != "" {
		user, err := backend.CurrentUser(ctx)
		if err != nil {
			logger.Warn("could not resolve the signed-in user, downloads will not be counted", "err", err)
		} else {
			userID = user.ID

			logger.Info("signed in", "user_id", user.ID)
		}
	}

	// =========================================================================
	// Start Pipeline
	chain := persist.NewChain(
		persist.NewGrantedDirStrategy(local.NewDirGrants(cfg.DownloadsDir)),
		persist.NewMediaLibraryStrategy(local.NewFolderLibrary(cfg.MediaRootDir)),
		persist.NewShareSheetStrategy(nil), // no native share sheet on a desktop host
		persist.NewShareDialogStrategy(local.NewOutboxDialog(cfg.ShareOutbox)),
	)

	pl := pipeline.New(
		fetch.NewFetcher(fetchTimeout),
		chain,
		record.NewRecorder(backend, counts),
		opener.NewExecOpener(),
		history,
		tel,
		cfg.ScratchDir,
		userID,
	)

	return &app{
		cfg:     cfg,
		backend: backend,
		db:      database,
		history: history,
		runner:  pipeline.NewRunner(pl, cfg.MaxParallel),
		userID:  userID,
	}, nil
}

func (a *app) Close() error {
	a.runner.Close()

	return a.db.Close()
}

// watchEvents forwards runner events to the log and, when configured, to the
// Discord webhook.
func (a *app) watchEvents(ctx context.Context) {
	logger := logctx.LoggerFromContext(ctx)

	var notif notifier.Notifier
	if a.cfg.DiscordWebhookURL != "" {
		notif = &notifier.DiscordNotifier{WebhookURL: a.cfg.DiscordWebhookURL}
	}

	go func() {
		for event := range a.runner.OnDownloadError {
			logger.Error("document download failed", "document_id", event.Document.ID, "err", event.Err)

			if notif == nil {
				continue
			}

			if notifyErr := notif.Notify(notifier.DownloadFailed(event.Document.Title, event.Err.Error())); notifyErr != nil {
				logger.Error("failed to send notification", "err", notifyErr)
			}
		}
	}()

	go func() {
		for event := range a.runner.OnDownloadFinished {
			logger.Info("document download finished",
				"document_id", event.Document.ID,
				"title", event.Document.Title,
				"status", string(event.Result.Status),
			)

			if notif == nil {
				continue
			}

			if notifyErr := notif.Notify(notifier.DownloadFinished(event.Document.Title, event.Result.Location)); notifyErr != nil {
				logger.Error("failed to send notification", "document_id", event.Document.ID, "err", notifyErr)
			}
		}
	}()
}

// kindsFromFlag expands the --kind flag into concrete document kinds.
func kindsFromFlag(kind string) ([]document.Kind, error) {
	switch kind {
	case "all":
		return []document.Kind{document.KindNote, document.KindPYQ, document.KindSyllabus}, nil
	case string(document.KindNote):
		return []document.Kind{document.KindNote}, nil
	case string(document.KindPYQ):
		return []document.Kind{document.KindPYQ}, nil
	case string(document.KindSyllabus):
		return []document.Kind{document.KindSyllabus}, nil
	}

	return nil, fmt.Errorf("unknown kind %q (want note, pyq, syllabus or all)", kind)
}
