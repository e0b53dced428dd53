package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

// testEnv holds a router with the catalog routes mounted over a small
// fixed model.
type testEnv struct {
	db     *model.Database
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	intType := sqltype.Simple("int")
	db := &model.Database{
		StoredProcedures: []model.StoredProcedure{
			{Schema: "dbo", Name: "GetOrders", FullName: "[dbo].[GetOrders]", Identifier: "dbo_GetOrders",
				Parameters: []model.Parameter{{Name: "@id", Identifier: "id", Ordinal: 1, Type: intType}},
				ResultSets: []model.ResultSet{}},
			{Schema: "sales", Name: "Rollup", FullName: "[sales].[Rollup]", Identifier: "sales_Rollup",
				Parameters: []model.Parameter{}, ResultSets: []model.ResultSet{}},
		},
		Functions: []model.Function{
			{Schema: "dbo", Name: "AddOne", FullName: "[dbo].[AddOne]", Identifier: "dbo_AddOne",
				ScalarReturn: &intType, Parameters: []model.Parameter{}, Columns: []model.ResultColumn{}},
		},
		Views: []model.View{
			{Schema: "Sales", Name: "Totals", FullName: "[Sales].[Totals]", Identifier: "Sales_Totals",
				Columns: []model.ResultColumn{{Name: "Total", Identifier: "Total", Type: intType, Ordinal: 1}}},
		},
		TableTypes: []model.TableType{
			{Schema: "dbo", Name: "IdList", FullName: "[dbo].[IdList]", Identifier: "dbo_IdList",
				Columns: []model.ResultColumn{{Name: "Id", Identifier: "Id", Type: intType, Ordinal: 1}}},
		},
		Diagnostics: []model.Diagnostic{
			{Kind: model.DiagResultShape, Entity: "[sales].[Rollup]", Detail: "describe error 11514: dynamic SQL"},
			{Kind: model.DiagColumns, Entity: "[Sales].[Totals]", Detail: "timeout"},
		},
	}

	h := NewCatalogHandler(db)
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/model", h.GetModel)
		r.Get("/summary", h.GetSummary)
		r.Get("/procedures", h.ListProcedures)
		r.Get("/procedures/{schema}/{name}", h.GetProcedure)
		r.Get("/functions", h.ListFunctions)
		r.Get("/functions/{schema}/{name}", h.GetFunction)
		r.Get("/views", h.ListViews)
		r.Get("/views/{schema}/{name}", h.GetView)
		r.Get("/table-types", h.ListTableTypes)
		r.Get("/table-types/{schema}/{name}", h.GetTableType)
		r.Get("/diagnostics", h.ListDiagnostics)
	})

	return &testEnv{db: db, router: r}
}

// do executes a GET request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

// listResponse mirrors model.ListResponse with a raw resource so tests can
// decode into the concrete element type.
type listResponse struct {
	Resource json.RawMessage    `json:"resource"`
	Meta     model.ResponseMeta `json:"meta"`
}

func decodeList[T any](t *testing.T, rr *httptest.ResponseRecorder) ([]T, model.ResponseMeta) {
	t.Helper()
	var resp listResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	var items []T
	if err := json.Unmarshal(resp.Resource, &items); err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	return items, resp.Meta
}

func TestGetModel(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "/api/v1/model")
	assertStatus(t, rr, http.StatusOK)

	var got map[string]json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"stored_procedures", "functions", "views", "table_types", "diagnostics"} {
		if _, ok := got[key]; !ok {
			t.Errorf("model response missing %q", key)
		}
	}
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "/api/v1/summary")
	assertStatus(t, rr, http.StatusOK)

	var got model.Counts
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != env.db.Counts() {
		t.Errorf("summary = %+v, want %+v", got, env.db.Counts())
	}
}

func TestListProcedures(t *testing.T) {
	env := newTestEnv(t)

	t.Run("all", func(t *testing.T) {
		rr := env.do(t, "/api/v1/procedures")
		assertStatus(t, rr, http.StatusOK)
		procs, meta := decodeList[model.StoredProcedure](t, rr)
		if meta.Count != 2 || len(procs) != 2 {
			t.Fatalf("count = %d, len = %d, want 2", meta.Count, len(procs))
		}
		if procs[0].FullName != "[dbo].[GetOrders]" || procs[1].FullName != "[sales].[Rollup]" {
			t.Errorf("order = %s, %s", procs[0].FullName, procs[1].FullName)
		}
		if meta.Schema != "" {
			t.Errorf("meta.schema = %q, want empty", meta.Schema)
		}
	})

	t.Run("schema filter", func(t *testing.T) {
		rr := env.do(t, "/api/v1/procedures?schema=SALES")
		assertStatus(t, rr, http.StatusOK)
		procs, meta := decodeList[model.StoredProcedure](t, rr)
		if len(procs) != 1 || procs[0].Name != "Rollup" {
			t.Fatalf("filtered = %+v", procs)
		}
		if meta.Schema != "SALES" {
			t.Errorf("meta.schema = %q", meta.Schema)
		}
	})

	t.Run("unknown schema is empty, not null", func(t *testing.T) {
		rr := env.do(t, "/api/v1/procedures?schema=nope")
		assertStatus(t, rr, http.StatusOK)
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
			t.Fatal(err)
		}
		if string(raw["resource"]) != "[]" {
			t.Errorf("resource = %s, want []", raw["resource"])
		}
	})
}

func TestGetProcedure(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "/api/v1/procedures/dbo/GetOrders")
	assertStatus(t, rr, http.StatusOK)
	var p model.StoredProcedure
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Identifier != "dbo_GetOrders" || len(p.Parameters) != 1 {
		t.Errorf("procedure = %+v", p)
	}
	if !p.Parameters[0].Type.Equal(sqltype.Simple("int")) {
		t.Errorf("parameter type = %v", p.Parameters[0].Type)
	}

	rr = env.do(t, "/api/v1/procedures/DBO/getorders")
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "/api/v1/procedures/dbo/Missing")
	assertStatus(t, rr, http.StatusNotFound)
	var e model.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if e.Error.Code != http.StatusNotFound || e.Error.Context["name"] != "Missing" {
		t.Errorf("error = %+v", e.Error)
	}
}

func TestGetOtherKinds(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/functions/dbo/AddOne", http.StatusOK},
		{"/api/v1/functions/dbo/Nope", http.StatusNotFound},
		{"/api/v1/views/Sales/Totals", http.StatusOK},
		{"/api/v1/views/sales/Totals", http.StatusNotFound},
		{"/api/v1/table-types/dbo/IdList", http.StatusOK},
		{"/api/v1/table-types/x/IdList", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assertStatus(t, env.do(t, tt.path), tt.want)
		})
	}
}

func TestListOtherKinds(t *testing.T) {
	env := newTestEnv(t)

	fns, _ := decodeList[model.Function](t, env.do(t, "/api/v1/functions"))
	if len(fns) != 1 || fns[0].ScalarReturn == nil {
		t.Errorf("functions = %+v", fns)
	}
	views, _ := decodeList[model.View](t, env.do(t, "/api/v1/views?schema=sales"))
	if len(views) != 1 || len(views[0].Columns) != 1 {
		t.Errorf("views = %+v", views)
	}
	tts, _ := decodeList[model.TableType](t, env.do(t, "/api/v1/table-types?schema=sales"))
	if len(tts) != 0 {
		t.Errorf("table types = %+v", tts)
	}
}

func TestListDiagnostics(t *testing.T) {
	env := newTestEnv(t)

	all, meta := decodeList[model.Diagnostic](t, env.do(t, "/api/v1/diagnostics"))
	if meta.Count != 2 || len(all) != 2 {
		t.Fatalf("diagnostics = %+v", all)
	}

	cols, _ := decodeList[model.Diagnostic](t, env.do(t, "/api/v1/diagnostics?kind=columns"))
	if len(cols) != 1 || cols[0].Entity != "[Sales].[Totals]" {
		t.Errorf("columns diagnostics = %+v", cols)
	}
}
