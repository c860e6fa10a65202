// Package cli wires the download toolkit into a cobra command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/collegestudy/resource_downloader/internal/config"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Configuration is loaded once in the
// persistent pre-run so every subcommand sees the same environment.
func NewRootCmd(version string) *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "resource_downloader",
		Short:         "Download and persist study resources from sharable links",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}

			cfg = loaded

			logger := slog.New(logctx.NewTraceHandler(
				slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
			))
			slog.SetDefault(logger)

			cmd.SetContext(logctx.WithLogger(cmd.Context(), logger))

			return nil
		},
	}

	root.AddCommand(
		newListCmd(&cfg),
		newDownloadCmd(&cfg),
		newSyncCmd(&cfg),
		newWatchCmd(&cfg),
	)

	return root
}
