package models

import "testing"

func TestMapping_AddAndLookup(t *testing.T) {
	m := NewNamespaceMapping()
	m.Add(MappingEntry{URI: "http://example.com/a", Location: "a.xsd"})
	m.Add(MappingEntry{URI: "http://example.com/b", Location: "b.xsd"})

	loc, ok := m.Lookup("http://example.com/a")
	if !ok || loc != "a.xsd" {
		t.Errorf("Lookup(a) = %q, %v", loc, ok)
	}
	if _, ok := m.Lookup("http://example.com/missing"); ok {
		t.Error("expected miss for unmapped URI")
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
}

func TestMapping_DuplicateKeepsFirst(t *testing.T) {
	m := NewNamespaceMapping()
	m.Add(MappingEntry{URI: "http://example.com/a", Location: "first.xsd"})
	m.Add(MappingEntry{URI: "http://example.com/a", Location: "second.xsd"})

	loc, ok := m.Lookup("http://example.com/a")
	if !ok || loc != "first.xsd" {
		t.Errorf("Lookup = %q, want first.xsd", loc)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMapping_LookupCaseSensitive(t *testing.T) {
	m := NewNamespaceMapping()
	m.Add(MappingEntry{URI: "http://Example.com/A", Location: "a.xsd"})
	if _, ok := m.Lookup("http://example.com/a"); ok {
		t.Error("lookup must be case-sensitive")
	}
}

func TestMapping_PrefixDocumentOrder(t *testing.T) {
	m := NewNamespaceMapping()
	m.Add(MappingEntry{URI: "http://example.com/x/deep", Location: "deep/", Prefix: true})
	m.Add(MappingEntry{URI: "http://example.com/x", Location: "x/", Prefix: true})

	e, ok := m.LookupPrefix("http://example.com/x/deep/file.xsd")
	if !ok {
		t.Fatal("expected a prefix match")
	}
	// Both prefixes match; the first declared wins.
	if e.Location != "deep/" {
		t.Errorf("Location = %q, want deep/", e.Location)
	}
}

func TestMapping_PrefixEntryNotExact(t *testing.T) {
	m := NewNamespaceMapping()
	m.Add(MappingEntry{URI: "http://example.com/x", Location: "x/", Prefix: true})
	if _, ok := m.Lookup("http://example.com/x"); ok {
		t.Error("prefix entry must not satisfy an exact lookup")
	}
}

func TestMapping_IgnoresEmptyFields(t *testing.T) {
	m := NewNamespaceMapping()
	m.Add(MappingEntry{URI: "", Location: "a.xsd"})
	m.Add(MappingEntry{URI: "http://example.com/a", Location: ""})
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestMapping_EntriesIsCopy(t *testing.T) {
	m := NewNamespaceMapping()
	m.Add(MappingEntry{URI: "http://example.com/a", Location: "a.xsd"})
	entries := m.Entries()
	entries[0].Location = "mutated"
	if loc, _ := m.Lookup("http://example.com/a"); loc != "a.xsd" {
		t.Errorf("internal state mutated through Entries: %q", loc)
	}
}
