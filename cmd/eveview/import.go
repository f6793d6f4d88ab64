package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eveview/eveview/internal/eveview/eve"
	"github.com/eveview/eveview/internal/eveview/logger"
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import eve NDJSON events into the datastore",
	RunE:  runImport,
}

var flagBatchSize int

func init() {
	importCmd.Flags().IntVar(&flagBatchSize, "batch-size", 300, "events per commit")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ds, err := openDatastore(ctx)
	if err != nil {
		return err
	}
	importer := ds.GetImporter()

	total := 0
	errors := 0
	pending := 0
	for result := range eve.ReadEvents(args) {
		if result.Err != nil {
			logger.L().Warnw("Skipping event", "error", result.Err)
			errors++
			continue
		}
		if err := importer.Submit(ctx, result.Event); err != nil {
			logger.L().Warnw("Skipping event", "error", err)
			errors++
			continue
		}
		pending++
		if pending >= flagBatchSize {
			n, err := importer.Commit(ctx)
			if err != nil {
				return err
			}
			total += n
			pending = 0
		}
	}
	n, err := importer.Commit(ctx)
	if err != nil {
		return err
	}
	total += n

	logger.L().Infow("Import done", "imported", total, "errors", errors)
	return nil
}
