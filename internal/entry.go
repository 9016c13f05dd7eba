// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/profile"
	"github.com/starford/ansuz/internal/reader"
	"github.com/starford/ansuz/internal/registry"
)

// Run reads every configured taxonomy root, consulting the cache
// before each read and saving afterwards. Roots are independent, so
// they are processed in parallel. With taxonomy.watch enabled, Run
// keeps cache-invalidation watchers alive until ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg)
	logger.Info("Configuration loaded",
		slog.Int("taxonomy_roots", len(cfg.Taxonomy.Roots)),
		slog.Bool("cache_enabled", cfg.Cache.Enabled),
		slog.Bool("registry_enabled", cfg.Registry.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	var (
		mgr *cache.Manager
		err error
	)
	if cfg.Cache.Enabled {
		mgr, err = cache.New(cfg.Cache.Dir, logger)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
	}

	var reg *registry.DB
	if cfg.Registry.Enabled {
		reg, err = registry.Open(cfg.Registry.Path)
		if err != nil {
			return fmt.Errorf("init registry: %w", err)
		}
		defer reg.Close()
	}

	rd := reader.New(logger)

	g, gCtx := errgroup.WithContext(ctx)
	for _, root := range cfg.Taxonomy.Roots {
		g.Go(func() error {
			p, err := processRoot(rd, mgr, reg, root, logger)
			if err != nil {
				return err
			}
			if cfg.Taxonomy.Watch && mgr != nil {
				entry := mgr.EntryPath(p.Metadata.Name, p.Metadata.Version)
				return cache.Watch(gCtx, mgr, entry, p.Metadata.Path, logger)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// processRoot produces one profile, going through the cache when it is
// still valid and falling back to a fresh read otherwise. Cache load
// failures are never fatal.
func processRoot(rd *reader.Reader, mgr *cache.Manager, reg *registry.DB, root string, logger *slog.Logger) (*profile.Profile, error) {
	var p *profile.Profile

	if mgr != nil {
		// The entry path is keyed by name+version, both derived from
		// the root directory name, so it can be computed up front.
		name, version := reader.TaxonomyIdentity(root)
		entry := mgr.EntryPath(name, version)
		if mgr.IsValid(entry, root) {
			loaded, err := mgr.Load(entry)
			if err == nil {
				logger.Info("profile loaded from cache",
					slog.String("root", root),
					slog.String("entry", entry))
				p = loaded
			} else {
				logger.Warn("cache load failed, re-reading",
					slog.String("entry", entry),
					slog.String("error", err.Error()))
			}
		}
	}

	if p == nil {
		read, err := rd.Read(root)
		if err != nil {
			return nil, fmt.Errorf("read taxonomy %s: %w", root, err)
		}
		p = read
		if mgr != nil {
			entry := mgr.EntryPath(p.Metadata.Name, p.Metadata.Version)
			if err := mgr.Save(p, entry); err != nil {
				logger.Warn("cache save failed",
					slog.String("entry", entry),
					slog.String("error", err.Error()))
			}
		}
	}

	if reg != nil {
		if err := reg.Record(p); err != nil {
			logger.Warn("registry record failed",
				slog.String("taxonomy", p.Metadata.Name),
				slog.String("error", err.Error()))
		}
	}
	return p, nil
}

// RunMCP serves the taxonomy tools over stdio until the client
// disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// MCP owns stdout; logs must go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	var (
		mgr *cache.Manager
		err error
	)
	if cfg.Cache.Enabled {
		mgr, err = cache.New(cfg.Cache.Dir, logger)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
	}

	var reg *registry.DB
	if cfg.Registry.Enabled {
		reg, err = registry.Open(cfg.Registry.Path)
		if err != nil {
			return fmt.Errorf("init registry: %w", err)
		}
		defer reg.Close()
	}

	srv := mcpserver.New(reader.New(logger), mgr, reg)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// CacheStats returns cache statistics for the configured cache dir.
func CacheStats(cfg *Config) (cache.Info, error) {
	mgr, err := cache.New(cfg.Cache.Dir, newLogger(cfg))
	if err != nil {
		return cache.Info{}, err
	}
	return mgr.Stats()
}

// CacheClear removes all cache entries and returns the count.
func CacheClear(cfg *Config) (int, error) {
	mgr, err := cache.New(cfg.Cache.Dir, newLogger(cfg))
	if err != nil {
		return 0, err
	}
	return mgr.Clear()
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
