// Package roles extracts declared role definitions from structural
// schema files and classifies them into statement types.
//
// A role declaration looks like:
//
//	<link:roleType roleURI="http://fasb.org/.../StatementOfFinancialPosition">
//	  <link:definition>Statement of Financial Position</link:definition>
//	  <link:usedOn>link:presentationLink</link:usedOn>
//	</link:roleType>
package roles

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/taxerr"
)

// classificationRule maps a keyword to a statement type. Rules are
// checked in order and the first match wins, so specific keywords must
// precede generic ones ("changes in equity" before "income", "cash
// flow" before "operations").
type classificationRule struct {
	keyword string
	stmt    models.StatementType
}

var classificationRules = []classificationRule{
	{"statement of financial position", models.StatementBalanceSheet},
	{"financial position", models.StatementBalanceSheet},
	{"balancesheet", models.StatementBalanceSheet},
	{"balance", models.StatementBalanceSheet},
	{"statement of cash flows", models.StatementCashFlow},
	{"cash flow", models.StatementCashFlow},
	{"cashflow", models.StatementCashFlow},
	{"changes in equity", models.StatementEquity},
	{"stockholders", models.StatementEquity},
	{"shareholders", models.StatementEquity},
	{"equity", models.StatementEquity},
	{"comprehensive income", models.StatementIncome},
	{"statement of income", models.StatementIncome},
	{"statement of operations", models.StatementIncome},
	{"profit or loss", models.StatementIncome},
	{"profit and loss", models.StatementIncome},
	{"income", models.StatementIncome},
	{"operations", models.StatementIncome},
	{"earnings", models.StatementIncome},
}

// Classify derives a statement type from a role's URI and definition
// text. The URI tail and definition are folded into one lowercase
// search key; an unmatched key yields StatementUnclassified (a valid
// steady-state result, never an error). Unmatched roles declared for
// presentation links degrade to StatementOther instead: they group
// concepts into some statement, just not one the table names.
func Classify(uri, definition string, usedOn []string) models.StatementType {
	key := strings.ToLower(uriTail(uri) + " " + definition)

	for _, rule := range classificationRules {
		if strings.Contains(key, rule.keyword) {
			return rule.stmt
		}
	}
	if usedOnPresentation(usedOn) {
		return models.StatementOther
	}
	return models.StatementUnclassified
}

// uriTail returns the final path segment of a role URI.
func uriTail(uri string) string {
	trimmed := strings.TrimRight(uri, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func usedOnPresentation(usedOn []string) bool {
	for _, u := range usedOn {
		if strings.Contains(u, "presentationLink") {
			return true
		}
	}
	return false
}

type roleDoc struct {
	RoleTypes []roleType `xml:"annotation>appinfo>roleType"`
}

type roleType struct {
	RoleURI    string   `xml:"roleURI,attr"`
	Definition string   `xml:"definition"`
	UsedOn     []string `xml:"usedOn"`
}

// Extract returns every role declared in the schema file at path.
func Extract(path string) ([]models.RoleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roles: read %s: %w", path, err)
	}

	var doc roleDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("roles: parse %s: %v: %w", path, err, taxerr.ErrUnparseableSchema)
	}

	var out []models.RoleDefinition
	for _, rt := range doc.RoleTypes {
		if rt.RoleURI == "" {
			continue
		}
		usedOn := make([]string, 0, len(rt.UsedOn))
		for _, u := range rt.UsedOn {
			if trimmed := strings.TrimSpace(u); trimmed != "" {
				usedOn = append(usedOn, trimmed)
			}
		}
		definition := strings.TrimSpace(rt.Definition)
		out = append(out, models.RoleDefinition{
			URI:          rt.RoleURI,
			Definition:   definition,
			UsedOn:       usedOn,
			SourceSchema: filepath.Base(path),
			Type:         Classify(rt.RoleURI, definition, usedOn),
		})
	}
	return out, nil
}

// ExtractAll processes each file independently; per-file failures are
// collected, never dropped, and never abort the batch.
func ExtractAll(paths []string) ([]models.RoleDefinition, []taxerr.FileError) {
	var (
		out    []models.RoleDefinition
		failed []taxerr.FileError
	)
	for _, p := range paths {
		defs, err := Extract(p)
		if err != nil {
			failed = append(failed, taxerr.FileError{Path: p, Err: err})
			continue
		}
		out = append(out, defs...)
	}
	return out, failed
}

// FilterPresentation returns only roles declared for presentation
// links. Pure filter: no reclassification.
func FilterPresentation(defs []models.RoleDefinition) []models.RoleDefinition {
	var out []models.RoleDefinition
	for _, d := range defs {
		if usedOnPresentation(d.UsedOn) {
			out = append(out, d)
		}
	}
	return out
}
