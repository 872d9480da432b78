package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Runs one video ingestion pass",
		Long: `Scans the configured channel for uploads inside the lookback window,
parses lap time submissions from video descriptions, and upserts the
resulting records into the team database. Runs once and exits.`,

		RunE: runIngestCommand,
	}
}

func runIngestCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	sum, err := appInstance.Ingestor().Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run ingestion: %w", err)
	}

	appInstance.Logger().Info("Ingestion pass finished",
		zap.Int("found", sum.Found),
		zap.Int("upserted", sum.Upserted),
		zap.Int("skipped", sum.Skipped),
	)
	return nil
}
