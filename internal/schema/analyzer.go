// Package schema parses structural-definition (.xsd) files: declared
// namespaces, version metadata, imports, and linkbase references.
package schema

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/taxerr"
)

// linkbaseKindTable maps linkbaseRef role markers to relationship
// kinds. Supporting a new dialect's kind is a row here, not a code path.
var linkbaseKindTable = map[string]models.LinkbaseKind{
	"presentationLinkbaseRef": models.LinkbasePresentation,
	"calculationLinkbaseRef":  models.LinkbaseCalculation,
	"definitionLinkbaseRef":   models.LinkbaseDefinition,
	"labelLinkbaseRef":        models.LinkbaseLabel,
	"referenceLinkbaseRef":    models.LinkbaseReference,
}

// linkbaseSuffixTable classifies refs that carry no role attribute by
// file-name convention.
var linkbaseSuffixTable = map[string]models.LinkbaseKind{
	"_pre.xml": models.LinkbasePresentation,
	"_cal.xml": models.LinkbaseCalculation,
	"_def.xml": models.LinkbaseDefinition,
	"_lab.xml": models.LinkbaseLabel,
	"_ref.xml": models.LinkbaseReference,
}

// KindForRef classifies a linkbase reference. Unrecognised references
// are preserved under LinkbaseOther rather than discarded.
func KindForRef(role, href string) models.LinkbaseKind {
	for marker, kind := range linkbaseKindTable {
		if strings.Contains(role, marker) {
			return kind
		}
	}
	for suffix, kind := range linkbaseSuffixTable {
		if strings.HasSuffix(href, suffix) {
			return kind
		}
	}
	return models.LinkbaseOther
}

type schemaDoc struct {
	Imports      []importRef   `xml:"import"`
	Includes     []includeRef  `xml:"include"`
	LinkbaseRefs []linkbaseRef `xml:"annotation>appinfo>linkbaseRef"`
}

type importRef struct {
	Namespace      string `xml:"namespace,attr"`
	SchemaLocation string `xml:"schemaLocation,attr"`
}

type includeRef struct {
	SchemaLocation string `xml:"schemaLocation,attr"`
}

type linkbaseRef struct {
	Href string `xml:"http://www.w3.org/1999/xlink href,attr"`
	Role string `xml:"http://www.w3.org/1999/xlink role,attr"`
}

// Analyze parses one structural-definition file. Fails with
// taxerr.ErrUnparseableSchema on structurally invalid input and with
// taxerr.ErrMissingNamespace when no target namespace is declared.
func Analyze(path string) (*models.SchemaDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))

	// Walk to the document element to capture its attributes; struct
	// decoding alone cannot see xmlns declarations.
	var root xml.StartElement
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("schema: parse %s: %v: %w", path, err, taxerr.ErrUnparseableSchema)
		}
		if se, ok := tok.(xml.StartElement); ok {
			root = se
			break
		}
	}
	if root.Name.Local != "schema" {
		return nil, fmt.Errorf("schema: %s: document element is %q: %w",
			path, root.Name.Local, taxerr.ErrUnparseableSchema)
	}

	desc := &models.SchemaDescriptor{
		Path:       path,
		Namespaces: map[string]string{},
		Linkbases:  map[models.LinkbaseKind][]string{},
	}
	for _, attr := range root.Attr {
		switch {
		case attr.Name.Space == "" && attr.Name.Local == "targetNamespace":
			desc.TargetNamespace = attr.Value
		case attr.Name.Space == "" && attr.Name.Local == "version":
			desc.Version = attr.Value
		case attr.Name.Space == "xmlns":
			desc.Namespaces[attr.Name.Local] = attr.Value
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			desc.Namespaces[""] = attr.Value
		}
	}

	var doc schemaDoc
	if err := dec.DecodeElement(&doc, &root); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %v: %w", path, err, taxerr.ErrUnparseableSchema)
	}

	if desc.TargetNamespace == "" {
		return nil, fmt.Errorf("schema: %s: %w", path, taxerr.ErrMissingNamespace)
	}

	dir := filepath.Dir(path)
	for _, imp := range doc.Imports {
		if imp.SchemaLocation == "" {
			continue
		}
		desc.Imports = append(desc.Imports, resolveLocation(dir, imp.SchemaLocation))
	}
	for _, inc := range doc.Includes {
		if inc.SchemaLocation == "" {
			continue
		}
		desc.Imports = append(desc.Imports, resolveLocation(dir, inc.SchemaLocation))
	}
	for _, ref := range doc.LinkbaseRefs {
		if ref.Href == "" {
			continue
		}
		kind := KindForRef(ref.Role, ref.Href)
		desc.Linkbases[kind] = append(desc.Linkbases[kind], resolveLocation(dir, ref.Href))
	}

	return desc, nil
}

// resolveLocation resolves a reference against the referencing file's
// directory; absolute URIs pass through untouched.
func resolveLocation(dir, loc string) string {
	if strings.Contains(loc, "://") {
		return loc
	}
	return filepath.Clean(filepath.Join(dir, filepath.FromSlash(loc)))
}

// AnalyzeAll processes each file independently. One file's failure
// never aborts the batch: failures come back as a FileError list
// alongside the descriptors that did parse.
func AnalyzeAll(paths []string) ([]*models.SchemaDescriptor, []taxerr.FileError) {
	var (
		descs  []*models.SchemaDescriptor
		failed []taxerr.FileError
	)
	for _, p := range paths {
		desc, err := Analyze(p)
		if err != nil {
			failed = append(failed, taxerr.FileError{Path: p, Err: err})
			continue
		}
		descs = append(descs, desc)
	}
	return descs, failed
}

// entry-point name conventions, tried against the root directory name.
func entryPointCandidates(root string) []string {
	name := filepath.Base(filepath.Clean(root))
	return []string{
		filepath.Join(root, name+".xsd"),
		filepath.Join(root, "taxonomy.xsd"),
		filepath.Join(root, "main.xsd"),
	}
}

// FindEntryPoint locates the taxonomy's primary structural-definition
// file: name conventions first, then catalog-declared schema locations,
// then the largest schema found by an exhaustive scan. Fails with
// taxerr.ErrNotFound when the root holds no schema at all.
func FindEntryPoint(root string) (string, error) {
	for _, p := range entryPointCandidates(root) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	// Catalog-declared entry points.
	if catalogPath, err := catalog.Locate(root); err == nil {
		if mapping, err := catalog.Parse(catalogPath); err == nil {
			base := filepath.Dir(catalogPath)
			for _, e := range mapping.Entries() {
				if e.Prefix || !strings.HasSuffix(e.Location, ".xsd") {
					continue
				}
				p := filepath.Join(base, filepath.FromSlash(e.Location))
				if info, err := os.Stat(p); err == nil && !info.IsDir() {
					return p, nil
				}
			}
		}
	}

	// Last resort: the largest schema under root. Entry points tend to
	// be the most comprehensive file in the package.
	var (
		largest string
		size    int64 = -1
	)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".xsd") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > size {
			largest, size = p, info.Size()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("schema: scan %s: %w", root, err)
	}
	if largest == "" {
		return "", fmt.Errorf("schema: no entry point under %s: %w", root, taxerr.ErrNotFound)
	}
	return largest, nil
}
