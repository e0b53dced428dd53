package model

// DiagnosticKind names the degradation path that produced a Diagnostic.
type DiagnosticKind string

const (
	// DiagList: an entity list query failed; the kind is empty. Entity
	// names the kind ("procedures", "views", ...).
	DiagList DiagnosticKind = "list"
	// DiagResultShape: the result-shape probe failed; the procedure has no
	// result sets.
	DiagResultShape DiagnosticKind = "result_shape"
	// DiagParameters: the parameter query failed; the list is empty.
	DiagParameters DiagnosticKind = "parameters"
	// DiagColumns: a view or table-valued function column query failed.
	DiagColumns DiagnosticKind = "columns"
	// DiagStructuredType: a table type parameter could not be resolved
	// and was typed as sqltype.Fallback().
	DiagStructuredType DiagnosticKind = "structured_type"
)

// Diagnostic records one non-fatal anomaly met during introspection.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind" yaml:"kind"`
	Entity string         `json:"entity" yaml:"entity"`
	Detail string         `json:"detail" yaml:"detail"`
}
