// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/team-spiral-racing/tsr-ops/internal/catalog"
	"github.com/team-spiral-racing/tsr-ops/internal/config"
	"github.com/team-spiral-racing/tsr-ops/internal/gitrepo"
	"github.com/team-spiral-racing/tsr-ops/internal/ingest"
	"github.com/team-spiral-racing/tsr-ops/internal/logging"
	"github.com/team-spiral-racing/tsr-ops/internal/metrics"
	"github.com/team-spiral-racing/tsr-ops/internal/notify"
	"github.com/team-spiral-racing/tsr-ops/internal/publish"
	"github.com/team-spiral-racing/tsr-ops/internal/store"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and passed to the commands that need it.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    store.Provider
	notifier notify.Provider

	ingestor  *ingest.Orchestrator
	publisher *publish.Publisher
}

// New creates and initializes an App from the configuration. It fails fast if
// any critical service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	metrics.Init()
	logger.Info("Initializing application services")

	st, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.NewYouTubeProvider(ctx, cfg.YouTube.APIKey, cfg.YouTube.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("initialize youtube client: %w", err)
	}

	repo := gitrepo.NewGitHubRepository(
		cfg.GitHub.Token,
		cfg.GitHub.Owner,
		cfg.GitHub.Repo,
		cfg.GitHub.Branch,
		cfg.GitHub.BotName,
		cfg.GitHub.BotEmail,
	)

	logger.Info("Application services initialized",
		zap.String("db_provider", cfg.DB.Provider),
		zap.String("notify_provider", cfg.Notify.Provider),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		notifier:  notifier,
		ingestor:  ingest.New(cat, st, notifier, logger, cfg.Window()),
		publisher: publish.New(repo, st, notifier, logger, cfg.GitHub.PostsDir, cfg.ImageTimeout()),
	}, nil
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Provider, error) {
	switch cfg.DB.Provider {
	case "postgres":
		logger.Info("Connecting to PostgreSQL")
		st, err := store.NewPostgresProvider(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		return st, nil
	case "noop":
		logger.Info("Using no-op database provider, records will be discarded")
		return &store.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown db provider: %s", cfg.DB.Provider)
	}
}

func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Provider, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		logger.Info("Connecting to GCP Pub/Sub", zap.String("topic", cfg.Notify.TopicID))
		notifier, err := notify.NewPubSubProvider(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicID)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub: %w", err)
		}
		return notifier, nil
	case "memory":
		return notify.NewMemoryProvider(), nil
	case "noop":
		return &notify.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the team database provider.
func (a *App) Store() store.Provider {
	return a.store
}

// Ingestor returns the video ingestion orchestrator.
func (a *App) Ingestor() *ingest.Orchestrator {
	return a.ingestor
}

// Publisher returns the blog publish pipeline.
func (a *App) Publisher() *publish.Publisher {
	return a.publisher
}

// Close gracefully shuts down all services in the container.
func (a *App) Close() {
	a.logger.Info("Shutting down application services")
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Error closing database connection", zap.Error(err))
	}
	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("Error closing notifier", zap.Error(err))
	}
	// Best effort, stderr sync commonly fails on ttys.
	_ = a.logger.Sync()
}
