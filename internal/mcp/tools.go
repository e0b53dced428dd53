package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

// registerTools registers the lookup tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("catalog_summary",
			mcp.WithDescription(
				"Count the procedures, functions, views, table types and diagnostics "+
					"in the model. Use this first to see what is available.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleSummary,
	)

	srv.AddTool(
		mcp.NewTool("catalog_list",
			mcp.WithDescription(
				"List entities of one kind with their schema, name and resource URI. "+
					"Optionally restrict to one schema.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum(kinds...),
				mcp.Description("Entity kind to list"),
			),
			mcp.WithString("schema",
				mcp.Description("Schema to restrict the list to (case-insensitive)"),
			),
		),
		s.handleList,
	)

	srv.AddTool(
		mcp.NewTool("catalog_describe",
			mcp.WithDescription(
				"Describe one entity: parameters and result columns for a procedure, "+
					"parameters and return shape for a function, columns for a view "+
					"or table type.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum(kinds...),
				mcp.Description("Entity kind"),
			),
			mcp.WithString("schema",
				mcp.Required(),
				mcp.Description("Schema name, e.g. dbo"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Entity name without brackets"),
			),
		),
		s.handleDescribe,
	)

	srv.AddTool(
		mcp.NewTool("catalog_diagnostics",
			mcp.WithDescription(
				"List entities that were introspected only partially, and why.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("kind",
				mcp.Description("Restrict to one diagnostic kind, e.g. result_shape"),
			),
		),
		s.handleDiagnostics,
	)
}

func (s *MCPServer) handleSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.db.Counts())
}

func (s *MCPServer) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request, []string{"kind", "schema"}, "kind")
	if err != nil {
		return failed(err, "")
	}
	items, err := list(s.db, args[0], args[1])
	if err != nil {
		return failed(err, "")
	}
	return jsonResult(items)
}

func (s *MCPServer) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request, []string{"kind", "schema", "name"}, "kind", "schema", "name")
	if err != nil {
		return failed(err, "")
	}
	v, err := describe(s.db, args[0], args[1], args[2])
	if err != nil {
		return failed(err, "Use catalog_list to see available entities")
	}
	return jsonResult(v)
}

func (s *MCPServer) handleDiagnostics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := arguments(request, []string{"kind"})
	out := []model.Diagnostic{}
	for _, d := range s.db.Diagnostics {
		if args[0] == "" || string(d.Kind) == args[0] {
			out = append(out, d)
		}
	}
	return jsonResult(out)
}
