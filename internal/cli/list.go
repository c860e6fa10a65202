package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/collegestudy/resource_downloader/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCmd(cfg **config.Config) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List downloadable documents and their download counts",
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

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tTITLE\tDOWNLOADS\tFETCHED")

			for _, kind := range kinds {
				docs, err := a.backend.ListDocuments(ctx, kind)
				if err != nil {
					return err
				}

				for _, doc := range docs {
					fetched := ""

					if has, err := a.history.HasDownloaded(doc.ID); err == nil && has {
						fetched = "yes"
					}

					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						doc.ID, string(doc.Kind), doc.Title, humanize.Comma(doc.DownloadCount), fetched)
				}
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "all", "document kind to list (note, pyq, syllabus, all)")

	return cmd
}
