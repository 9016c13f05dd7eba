package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Taxonomy TaxonomyConfig    `yaml:"taxonomy"`
	Cache    CacheConfig       `yaml:"cache"`
	Registry RegistryConfig    `yaml:"registry"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Taxonomy.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	// The cache directory must never sit inside a taxonomy root: the
	// cache is a disposable side channel beside the sources.
	if c.Cache.Enabled {
		for _, root := range c.Taxonomy.Roots {
			if pathContains(root, c.Cache.Dir) {
				return fmt.Errorf("cache: dir %q is inside taxonomy root %q", c.Cache.Dir, root)
			}
		}
	}
	return nil
}

func pathContains(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// TaxonomyConfig lists the taxonomy roots to comprehend. Watch enables
// the cache-invalidation watcher for long-running processes.
type TaxonomyConfig struct {
	Roots []string `yaml:"roots"`
	Watch bool     `yaml:"watch"`
}

// Validate validates the taxonomy configuration.
func (c *TaxonomyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Roots, validation.Required, validation.Length(1, 0)),
	)
}

// CacheConfig holds the profile cache location.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// RegistryConfig holds the SQLite profile registry location.
type RegistryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the registry configuration.
func (c *RegistryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Taxonomy: TaxonomyConfig{
			Roots: []string{"./taxonomies"},
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "./cache",
		},
		Registry: RegistryConfig{
			Enabled: true,
			Path:    "./ansuz.db",
		},
	}
}
