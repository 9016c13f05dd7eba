// Package profile defines the assembled, queryable understanding of
// one taxonomy and its serialized interchange form.
package profile

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/taxerr"
)

// FormatVersion tags every serialized profile so format drift across
// engine upgrades is detected instead of misread.
const FormatVersion = "1.0"

// Structure is the taxonomy's file inventory.
type Structure struct {
	EntryPoint  string                           `json:"entry_point"`
	CatalogFile string                           `json:"catalog_file,omitempty"`
	Schemas     []models.SchemaDescriptor        `json:"schemas,omitempty"`
	Linkbases   map[models.LinkbaseKind][]string `json:"linkbases,omitempty"`
}

// Profile is the aggregate result of reading one taxonomy. It is only
// ever handed out fully populated and is treated as immutable after
// construction; re-reading the taxonomy produces a new Profile.
type Profile struct {
	Metadata  models.Metadata                  `json:"metadata"`
	Structure Structure                        `json:"structure"`
	Roles     map[string]models.RoleDefinition `json:"roles,omitempty"`

	// Errors lists per-file failures collected during the read. A
	// non-empty list still yields a usable profile.
	Errors []string `json:"errors,omitempty"`

	FormatVersion string `json:"format_version"`
	GeneratedAt   string `json:"generated_at"`
}

// New builds a profile around the given parts, stamping the current
// format version and generation time.
func New(meta models.Metadata, structure Structure, roleDefs []models.RoleDefinition, errs []taxerr.FileError) *Profile {
	p := &Profile{
		Metadata:      meta,
		Structure:     structure,
		FormatVersion: FormatVersion,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if len(roleDefs) > 0 {
		p.Roles = make(map[string]models.RoleDefinition, len(roleDefs))
		for _, d := range roleDefs {
			if _, ok := p.Roles[d.URI]; ok {
				continue // role URIs are unique; first declaration wins
			}
			p.Roles[d.URI] = d
		}
	}
	for _, e := range errs {
		p.Errors = append(p.Errors, e.Error())
	}
	p.normalize()
	return p
}

// normalize empties out zero-length collections so a serialize/
// deserialize round-trip reproduces the profile field for field.
func (p *Profile) normalize() {
	if len(p.Roles) == 0 {
		p.Roles = nil
	}
	if len(p.Structure.Linkbases) == 0 {
		p.Structure.Linkbases = nil
	}
	if len(p.Structure.Schemas) == 0 {
		p.Structure.Schemas = nil
	}
	for i := range p.Structure.Schemas {
		s := &p.Structure.Schemas[i]
		if len(s.Namespaces) == 0 {
			s.Namespaces = nil
		}
		if len(s.Imports) == 0 {
			s.Imports = nil
		}
		if len(s.Linkbases) == 0 {
			s.Linkbases = nil
		}
	}
}

// validate enforces the required-metadata and format-version
// invariants a consumer relies on.
func (p *Profile) validate() error {
	if p.FormatVersion != FormatVersion {
		return fmt.Errorf("profile: format version %q: %w", p.FormatVersion, taxerr.ErrCorruptProfile)
	}
	err := validation.ValidateStruct(&p.Metadata,
		validation.Field(&p.Metadata.Name, validation.Required),
		validation.Field(&p.Metadata.Version, validation.Required),
		validation.Field(&p.Metadata.Namespace, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("profile: metadata: %v: %w", err, taxerr.ErrCorruptProfile)
	}
	return nil
}

// Serialize renders the profile to its textual interchange form.
func (p *Profile) Serialize() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("profile: serialize: %w", err)
	}
	return data, nil
}

// Deserialize is the exact inverse of Serialize. Fails with
// taxerr.ErrCorruptProfile when required metadata is absent or the
// format-version tag is unrecognised.
func Deserialize(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: deserialize: %v: %w", err, taxerr.ErrCorruptProfile)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	p.normalize()
	return &p, nil
}

// StatementRoles maps each role URI to its classified statement type.
func (p *Profile) StatementRoles() map[string]models.StatementType {
	out := make(map[string]models.StatementType, len(p.Roles))
	for uri, d := range p.Roles {
		out[uri] = d.Type
	}
	return out
}

// StatementTypes returns the sorted set of concrete statement types the
// taxonomy defines roles for. The other/unclassified buckets are
// fallbacks, not statements, and are excluded.
func (p *Profile) StatementTypes() []models.StatementType {
	set := map[models.StatementType]struct{}{}
	for _, d := range p.Roles {
		if d.Type == models.StatementOther || d.Type == models.StatementUnclassified {
			continue
		}
		set[d.Type] = struct{}{}
	}
	out := make([]models.StatementType, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RolesForStatement returns the roles classified to t, sorted by URI.
// A statement type maps to a list of roles: taxonomies routinely
// declare several roles per statement.
func (p *Profile) RolesForStatement(t models.StatementType) []models.RoleDefinition {
	var out []models.RoleDefinition
	for _, d := range p.Roles {
		if d.Type == t {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// PresentationLinkbases returns the presentation relationship files.
func (p *Profile) PresentationLinkbases() []string {
	return p.Structure.Linkbases[models.LinkbasePresentation]
}
