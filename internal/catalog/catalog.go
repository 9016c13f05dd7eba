// Package catalog parses taxonomy catalog documents and resolves
// namespace URIs to concrete file locations.
//
// A catalog maps namespace URIs to files, either directly (uri, system
// entries) or by prefix rewriting (rewriteURI entries):
//
//	<catalog xmlns="urn:oasis:names:tc:entity:xmlns:xml:catalog">
//	  <rewriteURI uriStartString="http://fasb.org/us-gaap/2025"
//	              rewritePrefix="./elts/"/>
//	  <uri name="http://example.com/schema.xsd" uri="./schema.xsd"/>
//	</catalog>
package catalog

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/taxerr"
)

// catalogDoc mirrors the OASIS catalog structure. Decoding matches by
// local name, so catalogs that omit the namespace still parse.
type catalogDoc struct {
	XMLName     xml.Name       `xml:"catalog"`
	RewriteURIs []rewriteEntry `xml:"rewriteURI"`
	URIs        []uriEntry     `xml:"uri"`
	Systems     []systemEntry  `xml:"system"`
}

type rewriteEntry struct {
	URIStartString string `xml:"uriStartString,attr"`
	RewritePrefix  string `xml:"rewritePrefix,attr"`
}

type uriEntry struct {
	Name string `xml:"name,attr"`
	URI  string `xml:"uri,attr"`
}

type systemEntry struct {
	SystemID string `xml:"systemId,attr"`
	URI      string `xml:"uri,attr"`
}

// candidate catalog locations, checked before any recursive search.
var catalogCandidates = []string{
	"catalog.xml",
	filepath.Join("META-INF", "catalog.xml"),
	filepath.Join("taxonomies", "catalog.xml"),
}

// Locate finds the catalog document under root. Standard locations are
// tried first, then a recursive search bounded to two directory levels.
// Returns taxerr.ErrNotFound when the taxonomy carries no catalog.
func Locate(root string) (string, error) {
	for _, rel := range catalogCandidates {
		p := filepath.Join(root, rel)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable subtree, keep looking
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		depth := len(strings.Split(rel, string(os.PathSeparator)))
		if d.IsDir() {
			if depth > 2 {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == "catalog.xml" {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("catalog: locate: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("catalog: no catalog under %s: %w", root, taxerr.ErrNotFound)
	}
	return found, nil
}

// Parse reads the catalog document at path and returns its namespace
// mapping in document order. A well-formed catalog with no mapping
// entries yields an empty mapping and a nil error.
func Parse(path string) (*models.NamespaceMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var doc catalogDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %v: %w", path, err, taxerr.ErrMalformedCatalog)
	}

	m := models.NewNamespaceMapping()
	for _, e := range doc.RewriteURIs {
		m.Add(models.MappingEntry{URI: e.URIStartString, Location: e.RewritePrefix, Prefix: true})
	}
	for _, e := range doc.URIs {
		m.Add(models.MappingEntry{URI: e.Name, Location: e.URI})
	}
	for _, e := range doc.Systems {
		m.Add(models.MappingEntry{URI: e.SystemID, Location: e.URI})
	}
	return m, nil
}

// Resolve maps uri to a file path. Resolution order: exact catalog
// entry, rewrite-prefix entry, then the URI interpreted as a path
// relative to base. Fails with taxerr.ErrUnresolvableNamespace when
// none of those produce an existing file.
func Resolve(uri string, mapping *models.NamespaceMapping, base string) (string, error) {
	if mapping != nil {
		if loc, ok := mapping.Lookup(uri); ok {
			return filepath.Join(base, filepath.FromSlash(loc)), nil
		}
		if e, ok := mapping.LookupPrefix(uri); ok {
			rest := uri[len(e.URI):]
			return filepath.Join(base, filepath.FromSlash(e.Location), filepath.FromSlash(rest)), nil
		}
	}

	// Directory-relative fallback for taxonomies without a catalog.
	if !strings.Contains(uri, "://") {
		p := filepath.Join(base, filepath.FromSlash(uri))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	return "", fmt.Errorf("catalog: resolve %q: %w", uri, taxerr.ErrUnresolvableNamespace)
}
