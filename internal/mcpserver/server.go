// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes taxonomy comprehension tools for LLM integration via
// stdio transport. No network listener is involved.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/reader"
	"github.com/starford/ansuz/internal/registry"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	rd  *reader.Reader
	mgr *cache.Manager
	reg *registry.DB
}

// New creates a new MCP server with all taxonomy tools registered.
// mgr and reg may be nil; the corresponding tools then report that
// the facility is disabled.
func New(rd *reader.Reader, mgr *cache.Manager, reg *registry.DB) *Server {
	s := &Server{rd: rd, mgr: mgr, reg: reg}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_taxonomy",
		mcp.WithDescription("Read a taxonomy root directory and return its full profile "+
			"(metadata, file structure, classified statement roles)."),
		mcp.WithString("root", mcp.Required(), mcp.Description("Path to the taxonomy root directory")),
	), s.readTaxonomy)

	s.mcp.AddTool(mcp.NewTool("get_statement_types",
		mcp.WithDescription("Read a taxonomy and return the set of statement types its roles classify into."),
		mcp.WithString("root", mcp.Required(), mcp.Description("Path to the taxonomy root directory")),
	), s.getStatementTypes)

	s.mcp.AddTool(mcp.NewTool("list_roles",
		mcp.WithDescription("Read a taxonomy and list its declared roles, optionally filtered "+
			"by statement type (balance_sheet, income_statement, cash_flow, equity, other, unclassified)."),
		mcp.WithString("root", mcp.Required(), mcp.Description("Path to the taxonomy root directory")),
		mcp.WithString("statement_type", mcp.Description("Optional statement type filter")),
	), s.listRoles)

	s.mcp.AddTool(mcp.NewTool("search_roles",
		mcp.WithDescription("Search the profile registry for roles of a given statement type "+
			"across every taxonomy this installation has read."),
		mcp.WithString("statement_type", mcp.Required(), mcp.Description("Statement type to search for")),
	), s.searchRoles)

	s.mcp.AddTool(mcp.NewTool("cache_info",
		mcp.WithDescription("Report profile cache statistics (entry count, total size, entry age bounds)."),
	), s.cacheInfo)

	s.mcp.AddTool(mcp.NewTool("get_taxonomy_contract",
		mcp.WithDescription("Returns the taxonomy package layout the reader understands. "+
			"Call this before pointing read_taxonomy at unfamiliar directory trees."),
	), s.getTaxonomyContract)

	// Resource: taxonomy layout contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://taxonomy-layout", "Taxonomy Layout Contract",
			mcp.WithResourceDescription("Taxonomy package layout conventions the reader relies on."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTaxonomyContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) readTaxonomy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.rd.Read(root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := p.Serialize()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getStatementTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.rd.Read(root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(p.StatementTypes(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRoles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.rd.Read(root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var defs []models.RoleDefinition
	if filter, err := req.RequireString("statement_type"); err == nil && filter != "" {
		defs = p.RolesForStatement(models.StatementType(filter))
	} else {
		for _, t := range models.StatementTypes() {
			defs = append(defs, p.RolesForStatement(t)...)
		}
	}
	out, _ := json.MarshalIndent(defs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchRoles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.reg == nil {
		return mcp.NewToolResultError("registry is disabled"), nil
	}
	stmt, err := req.RequireString("statement_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.reg.RolesByStatement(models.StatementType(stmt))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no registered roles for %q", stmt)), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) cacheInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.mgr == nil {
		return mcp.NewToolResultError("cache is disabled"), nil
	}
	info, err := s.mgr.Stats()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(info, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTaxonomyContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaxonomyLayoutContract), nil
}

func (s *Server) readTaxonomyContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://taxonomy-layout",
			MIMEType: "text/markdown",
			Text:     TaxonomyLayoutContract,
		},
	}, nil
}
