// Package storage defines the rooted file-system abstraction used for
// taxonomy roots and the cache directory.
package storage

import "time"

// FileInfo is a lightweight record returned by list operations.
type FileInfo struct {
	Path    string    // relative to the provider root
	Size    int64
	ModTime time.Time
}

// Provider is the interface for rooted file access. Taxonomy roots are
// only ever read through it; Write exists for the cache side.
type Provider interface {
	// List walks dir (relative to root) and returns every file whose
	// name ends with one of exts (all files when exts is empty).
	List(dir string, exts ...string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Stat returns metadata for the file at path.
	Stat(path string) (FileInfo, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Remove deletes the file at path.
	Remove(path string) error
}
