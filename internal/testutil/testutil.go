// Package testutil provides shared test helpers for building taxonomy
// packages on disk and opening throwaway registry databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/registry"
)

// TaxonomyRoot writes files (relative path -> content) under a fresh
// temporary directory named name and returns the directory. The name
// becomes the taxonomy identity, so "acme-2025" reads as acme/2025.
func TaxonomyRoot(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// SampleCatalog is a minimal OASIS catalog mapping one namespace
// prefix and one exact URI into the package.
const SampleCatalog = `<?xml version="1.0" encoding="UTF-8"?>
<catalog xmlns="urn:oasis:names:tc:entity:xmlns:xml:catalog">
  <rewriteURI uriStartString="http://example.com/acme/2025" rewritePrefix="./elts"/>
  <uri name="http://example.com/base" uri="./base.xsd"/>
</catalog>
`

// SampleEntrySchema declares a target namespace, one import, two role
// types, and presentation/calculation linkbase references.
const SampleEntrySchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:link="http://www.xbrl.org/2003/linkbase"
           xmlns:xlink="http://www.w3.org/1999/xlink"
           targetNamespace="http://example.com/acme/2025"
           version="2025">
  <xs:annotation>
    <xs:appinfo>
      <link:linkbaseRef xlink:href="acme_pre.xml"
        xlink:role="http://www.xbrl.org/2003/role/presentationLinkbaseRef"/>
      <link:linkbaseRef xlink:href="acme_cal.xml"
        xlink:role="http://www.xbrl.org/2003/role/calculationLinkbaseRef"/>
      <link:roleType roleURI="http://example.com/acme/role/StatementOfFinancialPosition">
        <link:definition>Statement of Financial Position</link:definition>
        <link:usedOn>link:presentationLink</link:usedOn>
      </link:roleType>
      <link:roleType roleURI="http://example.com/acme/role/StatementOfIncome">
        <link:definition>Statement of Income</link:definition>
        <link:usedOn>link:presentationLink</link:usedOn>
        <link:usedOn>link:calculationLink</link:usedOn>
      </link:roleType>
    </xs:appinfo>
  </xs:annotation>
  <xs:import namespace="http://example.com/base" schemaLocation="base.xsd"/>
</xs:schema>
`

// SampleBaseSchema is an imported leaf schema with no further references.
const SampleBaseSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/base"/>
`

// SampleTaxonomy writes a small but complete taxonomy package and
// returns its root: catalog, conventionally named entry schema, an
// imported schema, and the referenced linkbase files.
func SampleTaxonomy(t *testing.T) string {
	t.Helper()
	return TaxonomyRoot(t, "acme-2025", map[string]string{
		"catalog.xml":   SampleCatalog,
		"acme-2025.xsd": SampleEntrySchema,
		"base.xsd":      SampleBaseSchema,
		"acme_pre.xml":  `<linkbase/>`,
		"acme_cal.xml":  `<linkbase/>`,
	})
}

// TestRegistry opens a temporary registry database that is
// automatically cleaned up.
func TestRegistry(t *testing.T) *registry.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := registry.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
