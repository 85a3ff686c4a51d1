// Package app wires the vote index engine from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/api"
	"github.com/steemit/postrank/internal/content"
	"github.com/steemit/postrank/internal/db"
	"github.com/steemit/postrank/internal/plugins"
	"github.com/steemit/postrank/internal/posts"
	"github.com/steemit/postrank/internal/privileges"
	"github.com/steemit/postrank/internal/store"
	"github.com/steemit/postrank/internal/user"
	"github.com/steemit/postrank/pkg/config"
)

// App holds the engine components built for one process
type App struct {
	Backend  store.Backend
	Accessor *posts.Accessor
	Pipeline *posts.Pipeline
	Votes    *posts.VoteAggregator
	Resolver *posts.Resolver
	Hooks    *plugins.Registry
	Settings *user.SettingsService
	Users    *user.Directory

	// Checks lists the backends probed by health endpoints
	Checks map[string]api.HealthChecker

	closers []func() error
	logger  *zap.Logger
}

// New connects the configured backends and builds the engine
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Checks: make(map[string]api.HealthChecker),
		logger: logger.With(zap.String("component", "app")),
	}

	var backend store.Backend
	switch cfg.Database.Backend {
	case config.BackendMemory:
		backend = store.NewMemory()
	default:
		r, err := store.NewRedis(&cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		a.Checks["redis"] = r
		backend = r
	}
	a.Backend = backend

	var (
		postStore  posts.PostStore  = store.NewPostRepository(backend)
		topicStore posts.TopicStore = store.NewTopicRepository(backend)
	)
	if cfg.Database.Backend == config.BackendPostgres {
		database, err := db.New(&cfg.Database, cfg.Logging.Level, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, database.Close)
		a.Checks["postgres"] = database
		if err := database.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		repo := db.NewRepository(database.DB)
		postStore = db.NewPostRepository(repo)
		topicStore = db.NewTopicRepository(repo)
	}

	settings, err := user.NewSettingsService(backend, &cfg.Ranking, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Settings = settings
	a.Users = user.NewDirectory(backend, logger)
	a.Hooks = plugins.NewRegistry(logger)

	a.Accessor = posts.NewAccessor(backend, postStore, logger)
	a.Votes = posts.NewVoteAggregator(backend, postStore, topicStore, logger)
	a.Resolver = posts.NewResolver(backend, settings, logger)
	a.Pipeline = posts.NewPipeline(a.Accessor, logger,
		posts.WithPrivileges(privileges.NewService(backend, logger)),
		posts.WithContentParser(content.NewParser(logger)),
		posts.WithUserDirectory(a.Users),
		posts.WithBlockFilter(a.Users),
		posts.WithHooks(a.Hooks),
	)

	a.logger.Info("Engine ready",
		zap.String("object_backend", cfg.Database.Backend),
		zap.String("default_sort", cfg.Ranking.DefaultTopicPostSort))
	return a, nil
}

// Close releases backend connections in reverse order of creation
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = fmt.Errorf("failed to close backend: %w", err)
		}
	}
	a.closers = nil
	return first
}
