package cli

import (
	"context"
	"fmt"

	"github.com/collegestudy/resource_downloader/internal/config"
	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"github.com/spf13/cobra"
)

func newSyncCmd(cfg **config.Config) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download every document not yet fetched on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kinds, err := kindsFromFlag(kindFlag)
			if err != nil {
				return err
			}

			a, err := buildApp(ctx, *cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			a.watchEvents(ctx)

			n, total, err := syncOnce(ctx, a, kinds)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d of %d pending documents\n", n, total)

			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "all", "document kind to sync (note, pyq, syllabus, all)")

	return cmd
}

// syncOnce downloads everything the local history has not seen succeed yet.
// Shared by the sync command and the watch loop.
func syncOnce(ctx context.Context, a *app, kinds []document.Kind) (int, int, error) {
	logger := logctx.LoggerFromContext(ctx)

	var pending []*document.Document

	for _, kind := range kinds {
		docs, err := a.backend.ListDocuments(ctx, kind)
		if err != nil {
			return 0, 0, err
		}

		for _, doc := range docs {
			has, err := a.history.HasDownloaded(doc.ID)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to check download history: %w", err)
			}

			if !has {
				pending = append(pending, doc)
			}
		}
	}

	if len(pending) == 0 {
		logger.Debug("nothing to sync")

		return 0, 0, nil
	}

	logger.Info("syncing pending documents", "pending", len(pending))

	n, err := a.runner.RunAll(ctx, pending)

	return n, len(pending), err
}
