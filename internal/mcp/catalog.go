package mcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

// Entity kinds as they appear in tool arguments and resource URIs.
const (
	kindProcedures = "procedures"
	kindFunctions  = "functions"
	kindViews      = "views"
	kindTableTypes = "table-types"
)

var kinds = []string{kindProcedures, kindFunctions, kindViews, kindTableTypes}

const uriScheme = "sqlcatalog://"

// entityURI returns the resource URI of one entity. Schema and name are
// path-escaped so either may contain a slash.
func entityURI(kind, schema, name string) string {
	return uriScheme + kind + "/" + url.PathEscape(schema) + "/" + url.PathEscape(name)
}

// parseEntityURI is the inverse of entityURI.
func parseEntityURI(uri string) (kind, schema, name string, err error) {
	rest, ok := strings.CutPrefix(uri, uriScheme)
	if !ok {
		return "", "", "", fmt.Errorf("invalid URI %q: expected %s{kind}/{schema}/{name}", uri, uriScheme)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("invalid URI %q: expected %s{kind}/{schema}/{name}", uri, uriScheme)
	}
	if schema, err = url.PathUnescape(parts[1]); err != nil {
		return "", "", "", fmt.Errorf("invalid schema in %q: %w", uri, err)
	}
	if name, err = url.PathUnescape(parts[2]); err != nil {
		return "", "", "", fmt.Errorf("invalid name in %q: %w", uri, err)
	}
	return parts[0], schema, name, nil
}

// entitySummary is one line of a list result.
type entitySummary struct {
	Schema     string `json:"schema"`
	Name       string `json:"name"`
	FullName   string `json:"full_name"`
	Identifier string `json:"identifier"`
	URI        string `json:"uri"`
}

// list returns the entities of kind, optionally restricted to one schema
// (compared case-insensitively).
func list(db *model.Database, kind, schema string) ([]entitySummary, error) {
	out := []entitySummary{}
	add := func(s, n, full, id string) {
		if schema == "" || strings.EqualFold(s, schema) {
			out = append(out, entitySummary{s, n, full, id, entityURI(kind, s, n)})
		}
	}
	switch kind {
	case kindProcedures:
		for _, p := range db.StoredProcedures {
			add(p.Schema, p.Name, p.FullName, p.Identifier)
		}
	case kindFunctions:
		for _, f := range db.Functions {
			add(f.Schema, f.Name, f.FullName, f.Identifier)
		}
	case kindViews:
		for _, v := range db.Views {
			add(v.Schema, v.Name, v.FullName, v.Identifier)
		}
	case kindTableTypes:
		for _, t := range db.TableTypes {
			add(t.Schema, t.Name, t.FullName, t.Identifier)
		}
	default:
		return nil, unknownKind(kind)
	}
	return out, nil
}

// describe returns the full entity of kind with the exact schema and name.
func describe(db *model.Database, kind, schema, name string) (interface{}, error) {
	var (
		v  interface{}
		ok bool
	)
	switch kind {
	case kindProcedures:
		v, ok = db.Procedure(schema, name)
	case kindFunctions:
		v, ok = db.Function(schema, name)
	case kindViews:
		v, ok = db.View(schema, name)
	case kindTableTypes:
		v, ok = db.TableType(schema, name)
	default:
		return nil, unknownKind(kind)
	}
	if !ok {
		return nil, fmt.Errorf("%s %s not found", strings.TrimSuffix(kind, "s"), model.QualifiedName(schema, name))
	}
	return v, nil
}

func unknownKind(kind string) error {
	return fmt.Errorf("unknown kind %q (expected one of %s)", kind, strings.Join(kinds, ", "))
}
