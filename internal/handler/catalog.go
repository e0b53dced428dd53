package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

// CatalogHandler serves a finished introspection result. The model is never
// modified after construction, so the handler needs no locking.
type CatalogHandler struct {
	db *model.Database
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(db *model.Database) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// GetModel returns the whole model.
// GET /api/v1/model
func (h *CatalogHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, h.db)
}

// GetSummary returns the entity counts of the model.
// GET /api/v1/summary
func (h *CatalogHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, h.db.Counts())
}

// ListProcedures returns stored procedures, optionally filtered by ?schema=.
// GET /api/v1/procedures
func (h *CatalogHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, h.db.StoredProcedures, func(p model.StoredProcedure) string { return p.Schema })
}

// GetProcedure returns one stored procedure.
// GET /api/v1/procedures/{schema}/{name}
func (h *CatalogHandler) GetProcedure(w http.ResponseWriter, r *http.Request) {
	writeEntity(w, r, "Procedure", h.db.Procedure)
}

// ListFunctions returns functions, optionally filtered by ?schema=.
// GET /api/v1/functions
func (h *CatalogHandler) ListFunctions(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, h.db.Functions, func(f model.Function) string { return f.Schema })
}

// GetFunction returns one function.
// GET /api/v1/functions/{schema}/{name}
func (h *CatalogHandler) GetFunction(w http.ResponseWriter, r *http.Request) {
	writeEntity(w, r, "Function", h.db.Function)
}

// ListViews returns views, optionally filtered by ?schema=.
// GET /api/v1/views
func (h *CatalogHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, h.db.Views, func(v model.View) string { return v.Schema })
}

// GetView returns one view.
// GET /api/v1/views/{schema}/{name}
func (h *CatalogHandler) GetView(w http.ResponseWriter, r *http.Request) {
	writeEntity(w, r, "View", h.db.View)
}

// ListTableTypes returns table types, optionally filtered by ?schema=.
// GET /api/v1/table-types
func (h *CatalogHandler) ListTableTypes(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, h.db.TableTypes, func(t model.TableType) string { return t.Schema })
}

// GetTableType returns one table type.
// GET /api/v1/table-types/{schema}/{name}
func (h *CatalogHandler) GetTableType(w http.ResponseWriter, r *http.Request) {
	writeEntity(w, r, "Table type", h.db.TableType)
}

// ListDiagnostics returns the anomalies recorded during the run, optionally
// filtered by ?kind=.
// GET /api/v1/diagnostics
func (h *CatalogHandler) ListDiagnostics(w http.ResponseWriter, r *http.Request) {
	kind := filter(r, "kind")
	out := make([]model.Diagnostic, 0, len(h.db.Diagnostics))
	for _, d := range h.db.Diagnostics {
		if kind == "" || string(d.Kind) == kind {
			out = append(out, d)
		}
	}
	render(w, http.StatusOK, model.ListResponse{
		Resource: out,
		Meta:     model.ResponseMeta{Count: len(out)},
	})
}

// writeList filters items by the ?schema= query parameter. Schema names
// compare case-insensitively, as they do in the default collation.
func writeList[T any](w http.ResponseWriter, r *http.Request, items []T, schemaOf func(T) string) {
	schema := filter(r, "schema")
	out := make([]T, 0, len(items))
	for _, it := range items {
		if schema == "" || strings.EqualFold(schemaOf(it), schema) {
			out = append(out, it)
		}
	}
	render(w, http.StatusOK, model.ListResponse{
		Resource: out,
		Meta:     model.ResponseMeta{Count: len(out), Schema: schema},
	})
}

func writeEntity[T any](w http.ResponseWriter, r *http.Request, what string, lookup func(schema, name string) (T, bool)) {
	schema := chi.URLParam(r, "schema")
	name := chi.URLParam(r, "name")
	v, ok := lookup(schema, name)
	if !ok {
		renderError(w, http.StatusNotFound, what+" not found: "+model.QualifiedName(schema, name),
			map[string]interface{}{"schema": schema, "name": name})
		return
	}
	render(w, http.StatusOK, v)
}
