package models

// MappingEntry is one (namespace URI, resolved location) pair from a
// catalog document. Prefix is true for rewrite entries, where URI is a
// URI prefix and Location a path prefix.
type MappingEntry struct {
	URI      string `json:"uri"`
	Location string `json:"location"`
	Prefix   bool   `json:"prefix,omitempty"`
}

// NamespaceMapping is the ordered set of mappings produced from one
// catalog document. URIs are unique within a mapping; duplicates keep
// the first occurrence in document order. Lookups are case-sensitive
// exact matches with no normalisation.
type NamespaceMapping struct {
	entries []MappingEntry
	index   map[string]int
}

// NewNamespaceMapping returns an empty mapping.
func NewNamespaceMapping() *NamespaceMapping {
	return &NamespaceMapping{index: make(map[string]int)}
}

// Add appends an entry unless its URI is already mapped.
func (m *NamespaceMapping) Add(e MappingEntry) {
	if e.URI == "" || e.Location == "" {
		return
	}
	if _, ok := m.index[e.URI]; ok {
		return
	}
	m.index[e.URI] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Lookup returns the location mapped to uri by an exact entry.
func (m *NamespaceMapping) Lookup(uri string) (string, bool) {
	i, ok := m.index[uri]
	if !ok {
		return "", false
	}
	if m.entries[i].Prefix {
		return "", false
	}
	return m.entries[i].Location, true
}

// LookupPrefix returns the first rewrite entry whose URI is a prefix of
// uri, in document order.
func (m *NamespaceMapping) LookupPrefix(uri string) (MappingEntry, bool) {
	for _, e := range m.entries {
		if e.Prefix && len(uri) >= len(e.URI) && uri[:len(e.URI)] == e.URI {
			return e, true
		}
	}
	return MappingEntry{}, false
}

// Entries returns the mappings in document order.
func (m *NamespaceMapping) Entries() []MappingEntry {
	out := make([]MappingEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len reports the number of entries.
func (m *NamespaceMapping) Len() int {
	return len(m.entries)
}
