package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
		// No config file at the default location; defaults apply.
		return cfg, nil
	}
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runRead(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if roots := cmd.StringSlice("root"); len(roots) > 0 {
		cfg.Taxonomy.Roots = roots
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func runCacheInfo(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	info, err := internal.CacheStats(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("entries: %d\ntotal size: %d bytes\noldest: %s\nnewest: %s\n",
		info.EntryCount, info.TotalSize, info.OldestEntry, info.NewestEntry)
	return nil
}

func runCacheClear(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	removed, err := internal.CacheClear(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d cache entries\n", removed)
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "Taxonomy comprehension engine: read business-reporting taxonomies into queryable profiles",
		Action: runRead,
		Flags: []cli.Flag{
			configFlag,
			&cli.StringSliceFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Taxonomy root directory (repeatable; overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve taxonomy tools over stdio (Model Context Protocol)",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:  "cache",
				Usage: "Profile cache maintenance",
				Commands: []*cli.Command{
					{
						Name:   "info",
						Usage:  "Show cache statistics",
						Action: runCacheInfo,
						Flags:  []cli.Flag{configFlag},
					},
					{
						Name:   "clear",
						Usage:  "Remove all cache entries",
						Action: runCacheClear,
						Flags:  []cli.Flag{configFlag},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
