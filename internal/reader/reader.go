// Package reader orchestrates catalog resolution, schema analysis, and
// role extraction into one taxonomy profile.
package reader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/profile"
	"github.com/starford/ansuz/internal/roles"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/taxerr"
)

// Reader is the single entry point consumers use: given a taxonomy
// root, produce its profile. A Reader is stateless across calls; each
// Read builds its own accumulator, so one Reader may serve concurrent
// reads of different roots.
type Reader struct {
	logger *slog.Logger
}

// New creates a Reader. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read comprehends the taxonomy rooted at root. It fails fatally only
// when the root does not exist or holds no usable entry-point schema;
// per-file failures elsewhere are collected onto the profile, since a
// mostly-classified profile is more useful to a consumer than nothing.
func (r *Reader) Read(root string) (*profile.Profile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("reader: resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("reader: root %s: %w", root, taxerr.ErrTaxonomyNotFound)
	}

	name, version := splitRootName(absRoot)
	r.logger.Info("reading taxonomy",
		slog.String("root", absRoot),
		slog.String("name", name),
		slog.String("version", version))

	var fileErrs []taxerr.FileError

	// Catalog first, so later references can be resolved through it.
	// Its absence is tolerated: resolution falls back to
	// directory-relative paths.
	mapping := models.NewNamespaceMapping()
	resolveBase := absRoot
	catalogFile := ""
	if p, err := catalog.Locate(absRoot); err == nil {
		catalogFile = p
		resolveBase = filepath.Dir(p)
		m, err := catalog.Parse(p)
		if err != nil {
			fileErrs = append(fileErrs, taxerr.FileError{Path: p, Err: err})
		} else {
			mapping = m
			r.logger.Debug("catalog parsed",
				slog.String("path", p),
				slog.Int("entries", m.Len()))
		}
	}

	entry, err := schema.FindEntryPoint(absRoot)
	if err != nil {
		return nil, fmt.Errorf("reader: %s: %v: %w", root, err, taxerr.ErrTaxonomyNotFound)
	}

	schemas, traversalErrs := r.traverse(entry, mapping, resolveBase)
	fileErrs = append(fileErrs, traversalErrs...)
	if len(schemas) == 0 {
		return nil, fmt.Errorf("reader: entry point %s unusable: %w", entry, taxerr.ErrTaxonomyNotFound)
	}

	// The entry point is analyzed first; its namespace names the
	// taxonomy. A profile never ships with empty required metadata.
	primaryNS := schemas[0].TargetNamespace

	schemaPaths := make([]string, len(schemas))
	for i, s := range schemas {
		schemaPaths[i] = s.Path
	}

	roleDefs, roleErrs := roles.ExtractAll(schemaPaths)
	fileErrs = append(fileErrs, roleErrs...)

	descs := make([]models.SchemaDescriptor, len(schemas))
	for i, s := range schemas {
		descs[i] = *s
	}

	p := profile.New(
		models.Metadata{Name: name, Version: version, Namespace: primaryNS, Path: absRoot},
		profile.Structure{
			EntryPoint:  entry,
			CatalogFile: catalogFile,
			Schemas:     descs,
			Linkbases:   mergeLinkbases(schemas),
		},
		roleDefs,
		fileErrs,
	)

	r.logger.Info("taxonomy read",
		slog.String("name", name),
		slog.Int("schemas", len(schemas)),
		slog.Int("roles", len(roleDefs)),
		slog.Int("errors", len(fileErrs)))
	return p, nil
}

// traverse analyzes the entry point and every schema it transitively
// references. A visited set keyed by cleaned absolute path bounds the
// walk against reference cycles. Only the entry point's own failure is
// fatal; referenced schemas that fail to parse or resolve are recorded
// and skipped.
func (r *Reader) traverse(entry string, mapping *models.NamespaceMapping, base string) ([]*models.SchemaDescriptor, []taxerr.FileError) {
	var (
		out     []*models.SchemaDescriptor
		errs    []taxerr.FileError
		visited = map[string]struct{}{}
		queue   = []string{entry}
	)

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		key := filepath.Clean(path)
		if _, ok := visited[key]; ok {
			continue
		}
		visited[key] = struct{}{}

		desc, err := schema.Analyze(path)
		if err != nil {
			errs = append(errs, taxerr.FileError{Path: path, Err: err})
			continue
		}
		out = append(out, desc)

		for _, ref := range desc.Imports {
			resolved, err := r.resolveRef(ref, mapping, base)
			if err != nil {
				// Recorded, not fatal: the reference target may be an
				// external taxonomy not shipped in this package.
				errs = append(errs, taxerr.FileError{Path: ref, Err: err})
				continue
			}
			queue = append(queue, resolved)
		}
	}
	return out, errs
}

// resolveRef turns an import reference into a local schema path.
// Namespace URIs go through the catalog; plain paths must exist.
func (r *Reader) resolveRef(ref string, mapping *models.NamespaceMapping, base string) (string, error) {
	if strings.Contains(ref, "://") {
		return catalog.Resolve(ref, mapping, base)
	}
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, nil
	}
	return "", fmt.Errorf("reader: reference %s: %w", ref, taxerr.ErrUnresolvableNamespace)
}

// mergeLinkbases folds per-schema linkbase references into one
// kind-grouped inventory, first occurrence wins.
func mergeLinkbases(schemas []*models.SchemaDescriptor) map[models.LinkbaseKind][]string {
	merged := map[models.LinkbaseKind][]string{}
	seen := map[string]struct{}{}
	for _, s := range schemas {
		for _, kind := range models.LinkbaseKinds() {
			for _, p := range s.Linkbases[kind] {
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				merged[kind] = append(merged[kind], p)
			}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// TaxonomyIdentity derives the taxonomy name and version from a root
// path, the same way Read does. Callers can compute a cache key from a
// root without reading it.
func TaxonomyIdentity(root string) (name, version string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return splitRootName(abs)
}

// splitRootName derives taxonomy name and version from the root
// directory name. The trailing dash segment is the version by
// convention (us-gaap-2025, ifrs-2024).
func splitRootName(root string) (name, version string) {
	base := filepath.Base(root)
	if i := strings.LastIndex(base, "-"); i > 0 && i < len(base)-1 {
		return base[:i], base[i+1:]
	}
	return base, "unknown"
}

// StatementTypes returns the set of statement types the profile's
// roles classify into.
func StatementTypes(p *profile.Profile) []models.StatementType {
	return p.StatementTypes()
}

// RolesForStatement returns the profile's roles classified to t.
func RolesForStatement(p *profile.Profile, t models.StatementType) []models.RoleDefinition {
	return p.RolesForStatement(t)
}

// IsNotFound reports whether err is the fatal absent-taxonomy case, as
// opposed to a recoverable per-file failure.
func IsNotFound(err error) bool {
	return errors.Is(err, taxerr.ErrTaxonomyNotFound)
}
