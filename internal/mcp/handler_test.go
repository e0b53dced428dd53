package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

func testServer(t *testing.T) *MCPServer {
	t.Helper()
	intType := sqltype.Simple("int")
	db := &model.Database{
		StoredProcedures: []model.StoredProcedure{
			{Schema: "dbo", Name: "GetOrders", FullName: "[dbo].[GetOrders]", Identifier: "dbo_GetOrders",
				Parameters: []model.Parameter{{Name: "@id", Identifier: "id", Ordinal: 1, Type: intType}}},
			{Schema: "sales", Name: "a/b", FullName: "[sales].[a/b]", Identifier: "sales_a_b"},
		},
		Views: []model.View{
			{Schema: "dbo", Name: "Totals", FullName: "[dbo].[Totals]", Identifier: "dbo_Totals"},
		},
		Diagnostics: []model.Diagnostic{
			{Kind: model.DiagResultShape, Entity: "[sales].[a/b]", Detail: "describe error 11514"},
			{Kind: model.DiagColumns, Entity: "[dbo].[Totals]", Detail: "timeout"},
		},
	}
	return NewMCPServer(db, "test", nil)
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestEntityURIRoundTrip(t *testing.T) {
	tests := []struct{ kind, schema, name string }{
		{kindProcedures, "dbo", "GetOrders"},
		{kindTableTypes, "my schema", "a/b"},
		{kindViews, "dbo", "100%"},
	}
	for _, tt := range tests {
		uri := entityURI(tt.kind, tt.schema, tt.name)
		kind, schema, name, err := parseEntityURI(uri)
		if err != nil {
			t.Fatalf("parseEntityURI(%q): %v", uri, err)
		}
		if kind != tt.kind || schema != tt.schema || name != tt.name {
			t.Errorf("parseEntityURI(%q) = %q, %q, %q", uri, kind, schema, name)
		}
	}

	for _, bad := range []string{"other://views/dbo/x", "sqlcatalog://views/dbo", "sqlcatalog://views//x"} {
		if _, _, _, err := parseEntityURI(bad); err == nil {
			t.Errorf("parseEntityURI(%q) succeeded", bad)
		}
	}
}

func TestHandleList(t *testing.T) {
	s := testServer(t)

	res, err := s.handleList(context.Background(), callTool(map[string]interface{}{"kind": "procedures"}))
	if err != nil {
		t.Fatal(err)
	}
	var items []entitySummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[1].URI != "sqlcatalog://procedures/sales/a%2Fb" {
		t.Errorf("URI = %q", items[1].URI)
	}

	res, _ = s.handleList(context.Background(), callTool(map[string]interface{}{"kind": "functions"}))
	if text := resultText(t, res); strings.TrimSpace(text) != "[]" {
		t.Errorf("empty list = %s, want []", text)
	}

	res, _ = s.handleList(context.Background(), callTool(map[string]interface{}{"kind": "tables"}))
	if !res.IsError {
		t.Error("unknown kind should be a tool error")
	}
}

func TestHandleDescribe(t *testing.T) {
	s := testServer(t)

	res, err := s.handleDescribe(context.Background(), callTool(map[string]interface{}{
		"kind": "procedures", "schema": "dbo", "name": "GetOrders",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var p model.StoredProcedure
	if err := json.Unmarshal([]byte(resultText(t, res)), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.FullName != "[dbo].[GetOrders]" || len(p.Parameters) != 1 {
		t.Errorf("procedure = %+v", p)
	}

	res, _ = s.handleDescribe(context.Background(), callTool(map[string]interface{}{
		"kind": "views", "schema": "dbo", "name": "Missing",
	}))
	if !res.IsError || !strings.Contains(resultText(t, res), "[dbo].[Missing]") {
		t.Errorf("missing view result = %+v", res)
	}

	res, _ = s.handleDescribe(context.Background(), callTool(map[string]interface{}{"kind": "views"}))
	if !res.IsError || !strings.Contains(resultText(t, res), `"schema"`) {
		t.Errorf("missing argument result = %+v", res)
	}
}

func TestHandleDiagnostics(t *testing.T) {
	s := testServer(t)
	res, err := s.handleDiagnostics(context.Background(), callTool(map[string]interface{}{"kind": "columns"}))
	if err != nil {
		t.Fatal(err)
	}
	var diags []model.Diagnostic
	if err := json.Unmarshal([]byte(resultText(t, res)), &diags); err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].Entity != "[dbo].[Totals]" {
		t.Errorf("diagnostics = %+v", diags)
	}
}

func TestHandleEntityResource(t *testing.T) {
	s := testServer(t)

	var req mcp.ReadResourceRequest
	req.Params.URI = entityURI(kindProcedures, "sales", "a/b")
	contents, err := s.handleEntityResource(context.Background(), req)
	if err != nil {
		t.Fatalf("handleEntityResource: %v", err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents is %T", contents[0])
	}
	if text.URI != req.Params.URI || !strings.Contains(text.Text, `"full_name": "[sales].[a/b]"`) {
		t.Errorf("contents = %+v", text)
	}

	req.Params.URI = entityURI(kindFunctions, "dbo", "GetOrders")
	if _, err := s.handleEntityResource(context.Background(), req); err == nil {
		t.Error("reading a procedure as a function succeeded")
	}
}

func TestHandleModelResource(t *testing.T) {
	s := testServer(t)

	var req mcp.ReadResourceRequest
	req.Params.URI = modelURI
	contents, err := s.handleModelResource(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["stored_procedures"]; !ok {
		t.Errorf("model resource missing stored_procedures: %v", m)
	}
}

func TestReadOnlyAnnotation(t *testing.T) {
	ann := readOnlyAnnotation()
	if ann.ReadOnlyHint == nil || !*ann.ReadOnlyHint {
		t.Errorf("ReadOnlyHint = %v, want true", ann.ReadOnlyHint)
	}
	if ann.IdempotentHint == nil || !*ann.IdempotentHint {
		t.Errorf("IdempotentHint = %v, want true", ann.IdempotentHint)
	}
}

func TestArguments(t *testing.T) {
	req := callTool(map[string]interface{}{"kind": " views ", "schema": ""})

	got, err := arguments(req, []string{"kind", "schema"}, "kind")
	if err != nil {
		t.Fatalf("arguments: %v", err)
	}
	if got[0] != "views" || got[1] != "" {
		t.Errorf("arguments = %q", got)
	}
	if _, err := arguments(req, []string{"kind", "schema"}, "schema"); err == nil {
		t.Error("blank required argument accepted")
	}
}
