package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const modelURI = uriScheme + "model"

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// sqlcatalog://model: the whole introspection result
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			modelURI,
			"Database Model",
			mcp.WithResourceDescription(
				"Stored procedures with parameters and result columns, functions, "+
					"views and table types of the introspected database, plus any "+
					"diagnostics recorded during the run.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleModelResource,
	)

	// -------------------------------------------------------------------
	// sqlcatalog://{kind}/{schema}/{name}: one entity
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			uriScheme+"{kind}/{schema}/{name}",
			"Database Entity",
			mcp.WithTemplateDescription(
				"One procedure, function, view or table type. kind is one of "+
					"procedures, functions, views, table-types.",
			),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleEntityResource,
	)
}

func (s *MCPServer) handleModelResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, s.db)
}

func (s *MCPServer) handleEntityResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	kind, schema, name, err := parseEntityURI(uri)
	if err != nil {
		return nil, err
	}
	v, err := describe(s.db, kind, schema, name)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, v)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
