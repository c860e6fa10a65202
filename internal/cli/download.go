package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/collegestudy/resource_downloader/internal/config"
	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/spf13/cobra"
)

func newDownloadCmd(cfg **config.Config) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "download <id>...",
		Short: "Download specific documents by id",
		Args:  cobra.MinimumNArgs(1),
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

			wanted := make(map[string]bool, len(args))
			for _, id := range args {
				wanted[id] = true
			}

			var docs []*document.Document

			for _, kind := range kinds {
				listed, err := a.backend.ListDocuments(ctx, kind)
				if err != nil {
					return err
				}

				for _, doc := range listed {
					if wanted[doc.ID] {
						docs = append(docs, doc)

						delete(wanted, doc.ID)
					}
				}
			}

			if err := missingDocumentsErr(wanted); err != nil {
				return err
			}

			n, err := a.runner.RunAll(ctx, docs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d of %d documents\n", n, len(docs))

			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "all", "document kind to search (note, pyq, syllabus, all)")

	return cmd
}

// missingDocumentsErr reports every requested id that no listing matched.
func missingDocumentsErr(wanted map[string]bool) error {
	if len(wanted) == 0 {
		return nil
	}

	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return fmt.Errorf("documents not found: %s", strings.Join(ids, ", "))
}
