package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Syncs all blog posts to the site repository",
		Long: `Renders every blog post in the team database and commits the files
whose content changed to the site repository in a single commit. Runs once
and exits.`,

		RunE: runSyncCommand,
	}
}

func runSyncCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	res, err := appInstance.Publisher().SyncAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("run sync: %w", err)
	}

	appInstance.Logger().Info("Sync finished",
		zap.Bool("committed", res.Committed),
		zap.Int("files", len(res.Paths)),
		zap.Int("skipped_posts", res.SkippedPosts),
	)
	return nil
}
