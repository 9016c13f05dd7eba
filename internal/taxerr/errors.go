// Package taxerr defines sentinel errors shared across the engine.
package taxerr

import "errors"

// FileError records one file's failure during a batch operation.
// Batches collect these instead of aborting, so callers always see
// which files were skipped and why.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

var (
	ErrNotFound              = errors.New("not found")
	ErrTaxonomyNotFound      = errors.New("taxonomy not found")
	ErrMalformedCatalog      = errors.New("malformed catalog")
	ErrUnresolvableNamespace = errors.New("unresolvable namespace")
	ErrUnparseableSchema     = errors.New("unparseable schema")
	ErrMissingNamespace      = errors.New("missing namespace declaration")
	ErrCorruptProfile        = errors.New("corrupt profile data")
	ErrCacheCorrupt          = errors.New("cache corrupt")
)
