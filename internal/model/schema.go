package model

import (
	"strings"

	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

// Database is the full introspection result for one catalog: stored
// procedures, functions, views and table types, each ordered by
// (schema, name). A Database is built once per run and must be treated as
// read-only afterwards; it is then safe for concurrent readers.
type Database struct {
	StoredProcedures []StoredProcedure `json:"stored_procedures" yaml:"stored_procedures"`
	Functions        []Function        `json:"functions" yaml:"functions"`
	Views            []View            `json:"views" yaml:"views"`
	TableTypes       []TableType       `json:"table_types" yaml:"table_types"`
	Diagnostics      []Diagnostic      `json:"diagnostics" yaml:"diagnostics"`
}

// Parameter describes one routine parameter. Name keeps the catalog
// spelling (including the leading @); Identifier is safe to emit.
type Parameter struct {
	Name          string       `json:"name" yaml:"name"`
	Identifier    string       `json:"identifier" yaml:"identifier"`
	Ordinal       int          `json:"ordinal" yaml:"ordinal"`
	Type          sqltype.Type `json:"type" yaml:"type"`
	IsOutput      bool         `json:"is_output" yaml:"is_output"`
	IsNullable    bool         `json:"is_nullable" yaml:"is_nullable"`
	IsTableValued bool         `json:"is_table_valued" yaml:"is_table_valued"`
	// StructuredTypeFullName is set for table-valued parameters, e.g.
	// [dbo].[IdList]. When the table type could not be resolved, Type is
	// sqltype.Fallback() rather than a structured type. It is empty only
	// when the catalog did not reveal which table type the parameter uses.
	StructuredTypeFullName string `json:"structured_type,omitempty" yaml:"structured_type,omitempty"`
}

// ResultColumn is one column of a result set, view, table type or
// table-valued function. Ordinal is 1-based.
type ResultColumn struct {
	Name       string       `json:"name" yaml:"name"`
	Identifier string       `json:"identifier" yaml:"identifier"`
	Type       sqltype.Type `json:"type" yaml:"type"`
	IsNullable bool         `json:"is_nullable" yaml:"is_nullable"`
	Ordinal    int          `json:"ordinal" yaml:"ordinal"`
}

// ResultSet is one result set a procedure produces. Index is 0-based.
type ResultSet struct {
	Index   int            `json:"index" yaml:"index"`
	Columns []ResultColumn `json:"columns" yaml:"columns"`
}

// StoredProcedure describes a procedure and the shape of its first result
// set, when the engine could describe one.
type StoredProcedure struct {
	Schema     string      `json:"schema" yaml:"schema"`
	Name       string      `json:"name" yaml:"name"`
	FullName   string      `json:"full_name" yaml:"full_name"`
	Identifier string      `json:"identifier" yaml:"identifier"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
	ResultSets []ResultSet `json:"result_sets" yaml:"result_sets"`
}

// Function describes a scalar or table-valued function. ScalarReturn and
// Columns are mutually exclusive.
type Function struct {
	Schema        string         `json:"schema" yaml:"schema"`
	Name          string         `json:"name" yaml:"name"`
	FullName      string         `json:"full_name" yaml:"full_name"`
	Identifier    string         `json:"identifier" yaml:"identifier"`
	IsTableValued bool           `json:"is_table_valued" yaml:"is_table_valued"`
	ScalarReturn  *sqltype.Type  `json:"scalar_return,omitempty" yaml:"scalar_return,omitempty"`
	Parameters    []Parameter    `json:"parameters" yaml:"parameters"`
	Columns       []ResultColumn `json:"columns" yaml:"columns"`
}

// View describes a view and its columns.
type View struct {
	Schema     string         `json:"schema" yaml:"schema"`
	Name       string         `json:"name" yaml:"name"`
	FullName   string         `json:"full_name" yaml:"full_name"`
	Identifier string         `json:"identifier" yaml:"identifier"`
	Columns    []ResultColumn `json:"columns" yaml:"columns"`
}

// TableType describes a user-defined table type and its member columns.
type TableType struct {
	Schema     string         `json:"schema" yaml:"schema"`
	Name       string         `json:"name" yaml:"name"`
	FullName   string         `json:"full_name" yaml:"full_name"`
	Identifier string         `json:"identifier" yaml:"identifier"`
	Columns    []ResultColumn `json:"columns" yaml:"columns"`
}

// QualifiedName returns the bracket-quoted two-part name, escaping any
// closing bracket inside either part.
func QualifiedName(schema, name string) string {
	return quote(schema) + "." + quote(name)
}

func quote(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

// Key identifies an entity within its kind.
type Key struct {
	Schema string
	Name   string
}

// CompareKeys orders keys by schema then name, case-insensitively as the
// default SQL Server collation does, breaking ties on the exact bytes so
// the order is total.
func CompareKeys(a, b Key) int {
	if c := compareFold(a.Schema, b.Schema); c != 0 {
		return c
	}
	return compareFold(a.Name, b.Name)
}

func compareFold(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
