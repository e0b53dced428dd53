package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/sqlcatalog/internal/ident"
	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

// readParameters reads the declared parameters of a procedure or
// function. A failed parameter query leaves the list empty and records a
// DiagParameters diagnostic; a structured parameter whose table type cannot
// be resolved is typed as sqltype.Fallback() with a DiagStructuredType
// diagnostic. IsNullable is always false: the catalog does not expose
// parameter nullability.
func (in *Introspector) readParameters(ctx context.Context, k model.Key) ([]model.Parameter, []model.Diagnostic, error) {
	entity := model.QualifiedName(k.Schema, k.Name)

	var rows []parameterRow
	if err := in.selectRows(ctx, &rows, parametersQuery, k.Schema, k.Name); err != nil {
		if fatal := settle(ctx, err); fatal != nil {
			return nil, nil, fatal
		}
		return []model.Parameter{}, []model.Diagnostic{{
			Kind: model.DiagParameters, Entity: entity, Detail: err.Error(),
		}}, nil
	}

	var (
		scope  = ident.NewScope(in.opts.Target)
		params = make([]model.Parameter, 0, len(rows))
		diags  []model.Diagnostic
	)
	for _, row := range rows {
		p := model.Parameter{
			Name:       row.Name,
			Identifier: scope.Unique(strings.TrimPrefix(row.Name, "@")),
			Ordinal:    row.Ordinal,
			IsOutput:   row.output(),
		}
		if !row.structured() {
			p.Type = row.primitiveType()
			params = append(params, p)
			continue
		}

		p.IsTableValued = true
		fullName, typ, detail, err := in.structuredParameter(ctx, entity, row)
		if err != nil {
			return nil, nil, err
		}
		p.StructuredTypeFullName = fullName
		p.Type = typ
		if detail != "" {
			diags = append(diags, model.Diagnostic{
				Kind:   model.DiagStructuredType,
				Entity: entity,
				Detail: fmt.Sprintf("parameter %s: %s", row.Name, detail),
			})
		}
		params = append(params, p)
	}
	return params, diags, nil
}

// structuredParameter finds and resolves the table type behind a
// table-valued parameter. A non-empty detail means it degraded to the
// fallback type.
func (in *Introspector) structuredParameter(ctx context.Context, entity string, row parameterRow) (fullName string, typ sqltype.Type, detail string, err error) {
	fullName, ok := row.structuredName()
	if !ok {
		var found []parameterTypeRow
		if err := in.selectRows(ctx, &found, parameterTableTypeQuery, entity, row.Name); err != nil {
			if fatal := settle(ctx, err); fatal != nil {
				return "", sqltype.Type{}, "", fatal
			}
			return "", sqltype.Fallback(), fmt.Sprintf("table type name lookup failed: %v", err), nil
		}
		if len(found) == 0 {
			return "", sqltype.Fallback(), "table type name not found in catalog", nil
		}
		fullName = model.QualifiedName(found[0].Schema, found[0].Name)
	}

	lookup := in.structured.Resolve(ctx, fullName)
	if !lookup.Found {
		if fatal := settle(ctx, lookup.Err); fatal != nil {
			return "", sqltype.Type{}, "", fatal
		}
		return fullName, sqltype.Fallback(), fmt.Sprintf("%s unresolved: %v", fullName, lookup.Err), nil
	}
	return fullName, lookup.Type, "", nil
}
