package introspect

import (
	"context"
	"fmt"

	"github.com/faucetdb/sqlcatalog/internal/ident"
	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

// probeBatch is the batch handed to sys.dm_exec_describe_first_result_set.
// Schema and name must come from a catalog list query, never from a
// caller. The DMF compiles and describes the batch without running it.
func probeBatch(k model.Key) string {
	return "EXEC " + model.QualifiedName(k.Schema, k.Name)
}

// probeResultShape describes the first result set of a procedure. It
// returns no result sets when the procedure has no static first result
// set. A non-nil diagnostic means the probe failed and the procedure was
// degraded to zero result sets.
func (in *Introspector) probeResultShape(ctx context.Context, k model.Key) ([]model.ResultSet, *model.Diagnostic, error) {
	entity := model.QualifiedName(k.Schema, k.Name)

	var rows []describeRow
	if err := in.selectRows(ctx, &rows, describeFirstResultSetQuery, probeBatch(k)); err != nil {
		if fatal := settle(ctx, err); fatal != nil {
			return nil, nil, fatal
		}
		return []model.ResultSet{}, &model.Diagnostic{Kind: model.DiagResultShape, Entity: entity, Detail: err.Error()}, nil
	}

	for _, r := range rows {
		if r.ErrorNumber == nil {
			continue
		}
		msg := ""
		if r.ErrorMessage != nil {
			msg = *r.ErrorMessage
		}
		return []model.ResultSet{}, &model.Diagnostic{
			Kind:   model.DiagResultShape,
			Entity: entity,
			Detail: fmt.Sprintf("describe error %d: %s", *r.ErrorNumber, msg),
		}, nil
	}
	if len(rows) == 0 {
		return []model.ResultSet{}, nil, nil
	}

	cols := make([]model.ResultColumn, len(rows))
	for i, r := range rows {
		ordinal := i + 1
		if r.Ordinal != nil {
			ordinal = *r.Ordinal
		}
		name := fmt.Sprintf("Column%d", ordinal)
		if r.Name != nil && *r.Name != "" {
			name = *r.Name
		}
		typ := sqltype.Fallback()
		if r.SystemTypeName != nil {
			typ = sqltype.ParseDescriptor(*r.SystemTypeName)
		}
		nullable := true
		if r.IsNullable != nil {
			nullable = *r.IsNullable
		}
		cols[i] = model.ResultColumn{Name: name, Type: typ, IsNullable: nullable, Ordinal: ordinal}
	}
	cols = ordinalOrder(cols)
	scope := ident.NewScope(in.opts.Target)
	for i := range cols {
		cols[i].Identifier = scope.Unique(cols[i].Name)
	}
	return []model.ResultSet{{Index: 0, Columns: cols}}, nil, nil
}

// sysColumns converts sys.columns rows, already in column_id order.
func sysColumns(target ident.Target, rows []sysColumnRow) []model.ResultColumn {
	scope := ident.NewScope(target)
	cols := make([]model.ResultColumn, len(rows))
	for i, r := range rows {
		cols[i] = model.ResultColumn{
			Name:       r.Name,
			Identifier: scope.Unique(r.Name),
			Type:       r.sqlType(),
			IsNullable: r.IsNullable,
			Ordinal:    r.ColumnID,
		}
	}
	return cols
}
