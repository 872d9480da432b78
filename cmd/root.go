// Package cmd defines and implements the CLI commands for the tsr-ops
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/team-spiral-racing/tsr-ops/internal/app"
	"github.com/team-spiral-racing/tsr-ops/internal/config"
	"github.com/team-spiral-racing/tsr-ops/internal/ingest"
	"github.com/team-spiral-racing/tsr-ops/internal/publish"
	"github.com/team-spiral-racing/tsr-ops/internal/store"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application surface commands use. An interface so tests
// can inject a mock container.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Store() store.Provider
	Ingestor() *ingest.Orchestrator
	Publisher() *publish.Publisher
}

// newApp is the application factory. A variable so tests can replace it.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command. The app container is
// built in PersistentPreRunE and injected into the command context so every
// subcommand shares one set of services.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsr-ops",
		Short: "Operations service for the Team Spiral Racing site.",
		Long: `tsr-ops automates the content pipeline for the Team Spiral Racing site.
It ingests lap time submissions from channel uploads into the team database
and publishes blog posts to the site repository as reviewed commits.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSyncCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
