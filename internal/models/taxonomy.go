// Package models defines the domain types for Ansuz.
package models

// StatementType is the canonical financial-statement category a role
// classifies into. Classification is best-effort: Unclassified is a
// valid terminal value, not an error.
type StatementType string

const (
	StatementBalanceSheet StatementType = "balance_sheet"
	StatementIncome       StatementType = "income_statement"
	StatementCashFlow     StatementType = "cash_flow"
	StatementEquity       StatementType = "equity"
	StatementOther        StatementType = "other"
	StatementUnclassified StatementType = "unclassified"
)

// StatementTypes lists every valid StatementType value.
func StatementTypes() []StatementType {
	return []StatementType{
		StatementBalanceSheet,
		StatementIncome,
		StatementCashFlow,
		StatementEquity,
		StatementOther,
		StatementUnclassified,
	}
}

// LinkbaseKind labels the relationship kind of a referenced linkbase
// file. Kinds come from a lookup table; references the table does not
// recognise are preserved under LinkbaseOther.
type LinkbaseKind string

const (
	LinkbasePresentation LinkbaseKind = "presentation"
	LinkbaseCalculation  LinkbaseKind = "calculation"
	LinkbaseDefinition   LinkbaseKind = "definition"
	LinkbaseLabel        LinkbaseKind = "label"
	LinkbaseReference    LinkbaseKind = "reference"
	LinkbaseOther        LinkbaseKind = "other"
)

// LinkbaseKinds lists the known kinds in stable order, LinkbaseOther last.
func LinkbaseKinds() []LinkbaseKind {
	return []LinkbaseKind{
		LinkbasePresentation,
		LinkbaseCalculation,
		LinkbaseDefinition,
		LinkbaseLabel,
		LinkbaseReference,
		LinkbaseOther,
	}
}

// RoleDefinition is one declared role: a named extension point a
// taxonomy uses to group concepts into a reporting statement.
type RoleDefinition struct {
	URI          string        `json:"uri"`
	Definition   string        `json:"definition"`
	UsedOn       []string      `json:"used_on,omitempty"`
	SourceSchema string        `json:"source_schema"`
	Type         StatementType `json:"type"`
}

// SchemaDescriptor is one parsed structural-definition file.
type SchemaDescriptor struct {
	Path            string                    `json:"path"`
	TargetNamespace string                    `json:"target_namespace"`
	Version         string                    `json:"version,omitempty"`
	Namespaces      map[string]string         `json:"namespaces,omitempty"`
	Imports         []string                  `json:"imports,omitempty"`
	Linkbases       map[LinkbaseKind][]string `json:"linkbases,omitempty"`
}

// Metadata identifies a taxonomy: all fields are required and non-empty
// on any profile handed to a consumer.
type Metadata struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}
