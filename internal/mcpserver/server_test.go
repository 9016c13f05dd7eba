package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/reader"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	mgr, err := cache.New(filepath.Join(t.TempDir(), "cache"), logger)
	if err != nil {
		t.Fatal(err)
	}
	return New(reader.New(logger), mgr, testutil.TestRegistry(t))
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go offers no direct call-tool test helper, so handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_taxonomy":
		result, err = srv.readTaxonomy(ctx, req)
	case "get_statement_types":
		result, err = srv.getStatementTypes(ctx, req)
	case "list_roles":
		result, err = srv.listRoles(ctx, req)
	case "search_roles":
		result, err = srv.searchRoles(ctx, req)
	case "cache_info":
		result, err = srv.cacheInfo(ctx, req)
	case "get_taxonomy_contract":
		result, err = srv.getTaxonomyContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadTaxonomy(t *testing.T) {
	srv := testServer(t)
	root := testutil.SampleTaxonomy(t)

	r := callTool(t, srv, "read_taxonomy", map[string]interface{}{"root": root})
	if r.IsError {
		t.Fatalf("read_taxonomy failed: %s", resultText(r))
	}

	var p struct {
		Metadata models.Metadata `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &p); err != nil {
		t.Fatalf("result is not a profile: %v", err)
	}
	if p.Metadata.Name != "acme" || p.Metadata.Version != "2025" {
		t.Errorf("metadata = %+v", p.Metadata)
	}
}

func TestReadTaxonomy_MissingRoot(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_taxonomy", map[string]interface{}{
		"root": filepath.Join(t.TempDir(), "nope"),
	})
	if !r.IsError {
		t.Error("expected error result for missing taxonomy")
	}
}

func TestGetStatementTypes(t *testing.T) {
	srv := testServer(t)
	root := testutil.SampleTaxonomy(t)

	r := callTool(t, srv, "get_statement_types", map[string]interface{}{"root": root})
	if r.IsError {
		t.Fatalf("get_statement_types failed: %s", resultText(r))
	}
	var types []models.StatementType
	if err := json.Unmarshal([]byte(resultText(r)), &types); err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 || types[0] != models.StatementBalanceSheet || types[1] != models.StatementIncome {
		t.Errorf("types = %v", types)
	}
}

func TestListRoles_Filtered(t *testing.T) {
	srv := testServer(t)
	root := testutil.SampleTaxonomy(t)

	r := callTool(t, srv, "list_roles", map[string]interface{}{
		"root":           root,
		"statement_type": "balance_sheet",
	})
	if r.IsError {
		t.Fatalf("list_roles failed: %s", resultText(r))
	}
	var defs []models.RoleDefinition
	if err := json.Unmarshal([]byte(resultText(r)), &defs); err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 || defs[0].Type != models.StatementBalanceSheet {
		t.Errorf("defs = %+v", defs)
	}
}

func TestListRoles_Unfiltered(t *testing.T) {
	srv := testServer(t)
	root := testutil.SampleTaxonomy(t)

	r := callTool(t, srv, "list_roles", map[string]interface{}{"root": root})
	if r.IsError {
		t.Fatalf("list_roles failed: %s", resultText(r))
	}
	var defs []models.RoleDefinition
	if err := json.Unmarshal([]byte(resultText(r)), &defs); err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Errorf("len(defs) = %d, want 2", len(defs))
	}
}

func TestSearchRoles(t *testing.T) {
	srv := testServer(t)
	root := testutil.SampleTaxonomy(t)

	// Register a profile so the search has something to find.
	p, err := srv.rd.Read(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.reg.Record(p); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "search_roles", map[string]interface{}{
		"statement_type": "balance_sheet",
	})
	if r.IsError {
		t.Fatalf("search_roles failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "StatementOfFinancialPosition") {
		t.Errorf("search result missing role: %s", resultText(r))
	}

	r = callTool(t, srv, "search_roles", map[string]interface{}{
		"statement_type": "cash_flow",
	})
	if !strings.Contains(resultText(r), "no registered roles") {
		t.Errorf("empty search result = %s", resultText(r))
	}
}

func TestSearchRoles_RegistryDisabled(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := New(reader.New(logger), nil, nil)

	r := callTool(t, srv, "search_roles", map[string]interface{}{"statement_type": "equity"})
	if !r.IsError {
		t.Error("expected error result with nil registry")
	}
	r = callTool(t, srv, "cache_info", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error result with nil cache manager")
	}
}

func TestCacheInfo(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "cache_info", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("cache_info failed: %s", resultText(r))
	}
	var info cache.Info
	if err := json.Unmarshal([]byte(resultText(r)), &info); err != nil {
		t.Fatal(err)
	}
	if info.EntryCount != 0 {
		t.Errorf("EntryCount = %d, want 0", info.EntryCount)
	}
}

func TestGetTaxonomyContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_taxonomy_contract", map[string]interface{}{})
	if resultText(r) != TaxonomyLayoutContract {
		t.Error("contract tool did not return the layout contract")
	}
}

func TestTaxonomyContractResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readTaxonomyContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("resource read: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %v", contents)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.Text != TaxonomyLayoutContract {
		t.Error("resource did not return the layout contract")
	}
}
