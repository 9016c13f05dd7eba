package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestClassify_Table(t *testing.T) {
	presentation := []string{"link:presentationLink"}
	cases := []struct {
		name       string
		uri        string
		definition string
		usedOn     []string
		want       models.StatementType
	}{
		{
			name:       "financial position",
			uri:        "http://fasb.org/us-gaap/role/StatementOfFinancialPosition",
			definition: "Statement of Financial Position",
			usedOn:     presentation,
			want:       models.StatementBalanceSheet,
		},
		{
			name: "balance sheet from uri alone",
			uri:  "http://example.com/role/ConsolidatedBalanceSheets",
			want: models.StatementBalanceSheet,
		},
		{
			name:       "cash flows",
			uri:        "http://example.com/role/CashFlows",
			definition: "Statement of Cash Flows",
			want:       models.StatementCashFlow,
		},
		{
			name:       "changes in equity beats income",
			uri:        "http://example.com/role/Equity",
			definition: "Statement of Changes in Equity and Comprehensive Income",
			want:       models.StatementEquity,
		},
		{
			name:       "stockholders equity",
			uri:        "http://example.com/role/StockholdersEquity",
			definition: "Statement of Stockholders Equity",
			want:       models.StatementEquity,
		},
		{
			name:       "comprehensive income",
			uri:        "http://example.com/role/ComprehensiveIncome",
			definition: "Statement of Comprehensive Income",
			want:       models.StatementIncome,
		},
		{
			name:       "operations",
			uri:        "http://example.com/role/Ops",
			definition: "Statements of Operations",
			want:       models.StatementIncome,
		},
		{
			name:       "unmatched presentation role degrades to other",
			uri:        "http://example.com/role/DocumentAndEntityInformation",
			definition: "Document and Entity Information",
			usedOn:     presentation,
			want:       models.StatementOther,
		},
		{
			name:       "unmatched non-presentation role",
			uri:        "http://example.com/role/Labels",
			definition: "Label declarations",
			usedOn:     []string{"link:labelLink"},
			want:       models.StatementUnclassified,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.uri, tc.definition, tc.usedOn)
			if got != tc.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tc.uri, tc.definition, got, tc.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	uri := "http://example.com/role/IncomeStatement"
	def := "Consolidated Statements of Income"
	first := Classify(uri, def, nil)
	for i := 0; i < 10; i++ {
		if got := Classify(uri, def, nil); got != first {
			t.Fatalf("classification changed between calls: %q vs %q", got, first)
		}
	}
}

const roleSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:link="http://www.xbrl.org/2003/linkbase"
           targetNamespace="http://example.com/t">
  <xs:annotation>
    <xs:appinfo>
      <link:roleType roleURI="http://example.com/role/BalanceSheet">
        <link:definition>  Consolidated Balance Sheets  </link:definition>
        <link:usedOn>link:presentationLink</link:usedOn>
        <link:usedOn>link:calculationLink</link:usedOn>
      </link:roleType>
      <link:roleType roleURI="http://example.com/role/Disclosure">
        <link:definition>Significant Accounting Policies</link:definition>
        <link:usedOn>link:labelLink</link:usedOn>
      </link:roleType>
      <link:roleType roleURI="">
        <link:definition>dropped: no URI</link:definition>
      </link:roleType>
    </xs:appinfo>
  </xs:annotation>
</xs:schema>
`

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "roles.xsd")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtract(t *testing.T) {
	p := writeSchema(t, roleSchema)
	defs, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2 (empty roleURI dropped)", len(defs))
	}

	bs := defs[0]
	if bs.URI != "http://example.com/role/BalanceSheet" {
		t.Errorf("uri = %q", bs.URI)
	}
	if bs.Definition != "Consolidated Balance Sheets" {
		t.Errorf("definition not trimmed: %q", bs.Definition)
	}
	if len(bs.UsedOn) != 2 || bs.UsedOn[0] != "link:presentationLink" {
		t.Errorf("usedOn = %v", bs.UsedOn)
	}
	if bs.SourceSchema != "roles.xsd" {
		t.Errorf("sourceSchema = %q", bs.SourceSchema)
	}
	if bs.Type != models.StatementBalanceSheet {
		t.Errorf("type = %q", bs.Type)
	}

	if defs[1].Type != models.StatementUnclassified {
		t.Errorf("disclosure type = %q, want unclassified", defs[1].Type)
	}
}

func TestExtract_NoRoles(t *testing.T) {
	p := writeSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com/t"/>
`)
	defs, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("len(defs) = %d, want 0", len(defs))
	}
}

func TestExtractAll_CollectsFailures(t *testing.T) {
	good := writeSchema(t, roleSchema)
	bad := filepath.Join(t.TempDir(), "bad.xsd")
	if err := os.WriteFile(bad, []byte("<unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	defs, failed := ExtractAll([]string{good, bad})
	if len(defs) != 2 {
		t.Errorf("len(defs) = %d, want 2", len(defs))
	}
	if len(failed) != 1 || failed[0].Path != bad {
		t.Errorf("failed = %v", failed)
	}
}

func TestFilterPresentation(t *testing.T) {
	defs := []models.RoleDefinition{
		{URI: "a", UsedOn: []string{"link:presentationLink"}},
		{URI: "b", UsedOn: []string{"link:labelLink"}},
		{URI: "c", UsedOn: []string{"link:calculationLink", "link:presentationLink"}},
	}
	got := FilterPresentation(defs)
	if len(got) != 2 || got[0].URI != "a" || got[1].URI != "c" {
		t.Errorf("FilterPresentation = %v", got)
	}
}
