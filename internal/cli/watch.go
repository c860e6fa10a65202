package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/collegestudy/resource_downloader/internal/cleanup"
	"github.com/collegestudy/resource_downloader/internal/config"
	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/inbox"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"github.com/collegestudy/resource_downloader/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

func newWatchCmd(cfg **config.Config) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run as a daemon: periodic sync, scratch cleanup and a metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := kindsFromFlag(kindFlag)
			if err != nil {
				return err
			}

			return runWatch(cmd.Context(), *cfg, kinds)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "all", "document kind to sync (note, pyq, syllabus, all)")

	return cmd
}

func runWatch(ctx context.Context, cfg *config.Config, kinds []document.Kind) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down telemetry", "err", err)
		}
	}()

	// =========================================================================
	// Start Toolkit
	a, err := buildApp(ctx, cfg, tel)
	if err != nil {
		return err
	}
	defer a.Close()

	a.watchEvents(ctx)

	// =========================================================================
	// Start Notification Inbox
	if a.userID != "" {
		inboxSvc := inbox.NewService(a.backend, nil, cfg.InboxInterval)
		if err := inboxSvc.Init(ctx, a.userID); err != nil {
			logger.Warn("failed to start notification inbox", "err", err)
		} else {
			defer inboxSvc.Teardown()
		}
	}

	// =========================================================================
	// Start Cleanup
	startCleanup(ctx, cfg)

	// =========================================================================
	// Start Metrics Server

	// Buffered so the goroutine can exit even if we never collect the error.
	serverErrors := make(chan error, 1)

	server := newServer(ctx, cfg, tel)

	go func() {
		logger.Info("serving health and metrics", "host", cfg.Web.BindAddress)
		serverErrors <- server.ListenAndServe()
	}()

	logger.Info("waiting for documents...",
		"sync_interval", cfg.SyncInterval.String(),
		"scratch_retention", cfg.KeepScratchFor.String(),
	)

	// =========================================================================
	// Start Main Loop
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("start shutdown")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to gracefully shutdown the server", "err", err)

				if err = server.Close(); err != nil {
					return fmt.Errorf("could not stop server gracefully: %w", err)
				}
			}

			return ctx.Err()
		case <-ticker.C:
			if _, _, err := syncOnce(ctx, a, kinds); err != nil {
				logger.Error("sync pass failed", "err", err)
			}
		}
	}
}

func newServer(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry) *http.Server {
	r := chi.NewRouter()
	r.Use(telemetry.RequestID)
	r.Use(telemetry.HTTPLogging)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", tel.Handler())

	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      r,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

func startCleanup(ctx context.Context, cfg *config.Config) {
	logger := logctx.LoggerFromContext(ctx)

	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("cleanup goroutine shutting down")

				return
			case <-ticker.C:
				if err := cleanup.PurgeStale(ctx, cfg.ScratchDir, cfg.KeepScratchFor); err != nil {
					logger.Error("failed to purge stale scratch files", "err", err)
				}
			}
		}
	}()
}
