// Package cache persists serialized taxonomy profiles beside the
// reader. It is a purely additive, fully disposable side channel: no
// operation here ever writes to, renames, or deletes anything under a
// taxonomy root.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/profile"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/taxerr"
)

// Version tags every cache envelope. Entries written by a different
// engine format are treated as stale, never misread.
const Version = "1.0"

// envelope wraps a serialized profile with the metadata needed for
// validity decisions.
type envelope struct {
	CacheVersion  string          `json:"cache_version"`
	SavedAt       string          `json:"saved_at"`
	SourceModTime time.Time       `json:"source_mod_time"`
	Checksum      string          `json:"checksum"`
	Profile       json.RawMessage `json:"profile"`
}

// Info summarises cache contents.
type Info struct {
	EntryCount  int       `json:"entry_count"`
	TotalSize   int64     `json:"total_size"`
	OldestEntry time.Time `json:"oldest_entry"`
	NewestEntry time.Time `json:"newest_entry"`
}

// Manager persists and retrieves profiles under one explicit cache
// directory. The directory is passed in, never ambient global state,
// and all writes are confined to it by the rooted storage provider.
type Manager struct {
	fs     *storage.FS
	logger *slog.Logger
}

// New creates a Manager over dir, creating the directory when absent.
func New(dir string, logger *slog.Logger) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache: directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	cfs, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Manager{fs: cfs, logger: logger}, nil
}

// Dir returns the cache directory.
func (m *Manager) Dir() string {
	return m.fs.Root()
}

// EntryPath returns the deterministic cache file for a (taxonomy name,
// version) pair.
func (m *Manager) EntryPath(name, version string) string {
	return filepath.Join(m.fs.Root(), sanitize(name)+"-"+sanitize(version)+".json")
}

// sanitize keeps cache file names flat and portable.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// rel maps an entry path back under the cache root, rejecting anything
// outside it.
func (m *Manager) rel(entry string) (string, error) {
	rel, err := filepath.Rel(m.fs.Root(), entry)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("cache: entry outside cache dir: %s", entry)
	}
	return rel, nil
}

// IsValid reports whether entry exists and still reflects the source
// taxonomy: the envelope parses, its version tag matches, and no
// structural-definition file or catalog under sourceRoot has been
// modified since it was saved.
func (m *Manager) IsValid(entry, sourceRoot string) bool {
	env, err := m.readEnvelope(entry)
	if err != nil {
		return false
	}
	if env.CacheVersion != Version {
		m.logger.Debug("cache version mismatch", slog.String("entry", entry))
		return false
	}
	latest, err := sourceLatest(sourceRoot)
	if err != nil {
		return false
	}
	if latest.After(env.SourceModTime) {
		m.logger.Debug("cache stale", slog.String("entry", entry))
		return false
	}
	return true
}

// Load retrieves the profile stored at entry. Fails with
// taxerr.ErrCacheCorrupt on any deserialization problem; callers must
// fall back to a fresh read, never treat this as fatal.
func (m *Manager) Load(entry string) (*profile.Profile, error) {
	env, err := m.readEnvelope(entry)
	if err != nil {
		return nil, err
	}
	if env.Checksum != "" && checksum.Sum(env.Profile) != env.Checksum {
		return nil, fmt.Errorf("cache: %s: checksum mismatch: %w", entry, taxerr.ErrCacheCorrupt)
	}
	p, err := profile.Deserialize(env.Profile)
	if err != nil {
		return nil, fmt.Errorf("cache: %s: %v: %w", entry, err, taxerr.ErrCacheCorrupt)
	}
	return p, nil
}

// Save writes the profile to entry atomically (temp file then rename),
// so a crash mid-write never leaves an entry that parses but lies. The
// recorded source timestamp is the newest mtime across the taxonomy's
// structural files at save time.
func (m *Manager) Save(p *profile.Profile, entry string) error {
	rel, err := m.rel(entry)
	if err != nil {
		return err
	}

	data, err := p.Serialize()
	if err != nil {
		return fmt.Errorf("cache: save: %w", err)
	}
	latest, err := sourceLatest(p.Metadata.Path)
	if err != nil {
		return fmt.Errorf("cache: save: %w", err)
	}

	env := envelope{
		CacheVersion:  Version,
		SavedAt:       time.Now().UTC().Format(time.RFC3339),
		SourceModTime: latest,
		Checksum:      checksum.Sum(data),
		Profile:       data,
	}
	out, err := json.MarshalIndent(&env, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: save: %w", err)
	}
	if err := m.fs.Write(rel, out); err != nil {
		return err
	}
	m.logger.Info("profile cached",
		slog.String("entry", entry),
		slog.String("taxonomy", p.Metadata.Name))
	return nil
}

// Invalidate removes one entry. Missing entries are not an error.
func (m *Manager) Invalidate(entry string) error {
	rel, err := m.rel(entry)
	if err != nil {
		return err
	}
	if err := m.fs.Remove(rel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Clear removes all entries unconditionally and returns the count.
func (m *Manager) Clear() (int, error) {
	infos, err := m.fs.List("", ".json")
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, info := range infos {
		if err := m.fs.Remove(info.Path); err != nil {
			return removed, err
		}
		removed++
	}
	m.logger.Info("cache cleared", slog.Int("entries", removed))
	return removed, nil
}

// Stats reports entry count, total size, and the age bounds of the
// stored entries.
func (m *Manager) Stats() (Info, error) {
	infos, err := m.fs.List("", ".json")
	if err != nil {
		return Info{}, err
	}
	var out Info
	for _, info := range infos {
		out.EntryCount++
		out.TotalSize += info.Size
		if out.OldestEntry.IsZero() || info.ModTime.Before(out.OldestEntry) {
			out.OldestEntry = info.ModTime
		}
		if info.ModTime.After(out.NewestEntry) {
			out.NewestEntry = info.ModTime
		}
	}
	return out, nil
}

func (m *Manager) readEnvelope(entry string) (*envelope, error) {
	rel, err := m.rel(entry)
	if err != nil {
		return nil, err
	}
	data, err := m.fs.Read(rel)
	if err != nil {
		return nil, fmt.Errorf("cache: %s: %w", entry, taxerr.ErrNotFound)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("cache: %s: %v: %w", entry, err, taxerr.ErrCacheCorrupt)
	}
	return &env, nil
}

// sourceLatest returns the newest mtime across the structural files
// (schemas and catalog) under root. Unrelated files do not count.
func sourceLatest(root string) (time.Time, error) {
	src, err := storage.NewFS(root)
	if err != nil {
		return time.Time{}, fmt.Errorf("cache: scan source %s: %w", root, err)
	}
	latest, err := src.LatestModTime(".xsd", "catalog.xml")
	if err != nil {
		return time.Time{}, fmt.Errorf("cache: scan source %s: %w", root, err)
	}
	return latest, nil
}
