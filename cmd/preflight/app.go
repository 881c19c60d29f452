package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/checker"
	"github.com/jonathan/preflight/internal/config"
	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/db"
	"github.com/jonathan/preflight/internal/extract"
	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/plugins"
	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/store"
)

// app is the wired set of components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	site     *content.Site
	db       *db.DB
	content  checker.ContentSource
	resolver *settings.Resolver
	plugins  *plugins.Registry
	checker  *checker.Checker
}

// loadConfig resolves the configuration from the config file, the
// environment and the command line flags, in increasing precedence.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if sitePath != "" {
		cfg.Site = sitePath
	}
	if settingsDir != "" {
		cfg.SettingsDir = settingsDir
	}
	if verbose {
		cfg.Verbose = true
	}
	if cfg.Site == "" {
		return nil, fmt.Errorf("a site definition is required (--site, PREFLIGHT_SITE or \"site\" in the config file)")
	}
	return cfg, nil
}

// newApp wires the checker stack. Settings, documents and run history
// live in Postgres when a database URL is configured; otherwise settings
// are read from the settings directory and documents from the site file.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	logger = logging.OrNop(logger)

	site, err := content.LoadSite(cfg.Site)
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, site: site, content: site}

	var settingsStore settings.Store
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		a.db = database
		a.content = database
		settingsStore = database
		logger.Info("using database storage")
	} else {
		fileStore, err := store.NewFileStore(cfg.SettingsDir, logger)
		if err != nil {
			return nil, err
		}
		settingsStore = fileStore
		logger.Info("using file storage", zap.String("dir", fileStore.Dir()))
	}

	a.plugins = plugins.Default(plugins.Options{
		LinkTimeout: cfg.LinkTimeout.Std(),
		Logger:      logger,
	})
	a.resolver = settings.New(settings.Config{
		Store:     settingsStore,
		Languages: site,
		Groups:    site,
		Plugins:   a.plugins,
		TTL:       cfg.CacheTTL.Std(),
		Logger:    logger,
	})
	a.checker = checker.New(checker.Config{
		Content:       a.content,
		Settings:      a.resolver,
		Extractor:     extract.New(site, site, logger),
		Plugins:       a.plugins,
		Parallelism:   cfg.Parallelism,
		AllowFallback: cfg.Fallback(),
		Logger:        logger,
	})
	return a, nil
}

// Close releases the database pool, if any.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

// setup loads the configuration and wires the app with a logger suited to
// the command: JSON for the server, console otherwise.
func setup(ctx context.Context, server bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if server {
		logger, err = logging.New(cfg.Verbose)
	} else {
		logger, err = logging.NewDevelopment(cfg.Verbose)
	}
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logger)
}
