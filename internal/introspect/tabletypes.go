package introspect

import (
	"context"
	"fmt"
	"iter"

	"github.com/jmoiron/sqlx"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

// readTableTypes reads every user-defined table type and its columns with
// a single query, one row per column across all types, and folds the
// stream into entities on (schema, name) change.
func (in *Introspector) readTableTypes(ctx context.Context) ([]model.TableType, []model.Diagnostic, error) {
	qctx, cancel := in.query(ctx)
	defer cancel()

	rows, err := in.db.QueryxContext(qctx, tableTypeColumnsQuery)
	if err != nil {
		diags, err := degradeList(ctx, "table_types", err)
		return []model.TableType{}, diags, err
	}
	defer rows.Close()

	stream, scanErr := scanRows[tableTypeColumnRow](rows)
	groups, err := groupConsecutive(stream, tableTypeColumnRow.key)
	if err != nil {
		return nil, nil, fmt.Errorf("table types: %w", err)
	}
	if err := *scanErr; err != nil {
		diags, err := degradeList(ctx, "table_types", err)
		return []model.TableType{}, diags, err
	}

	groups = ensureOrdered(groups, func(g group[tableTypeColumnRow]) model.Key { return g.Key })
	types := make([]model.TableType, len(groups))
	for i, g := range groups {
		cols := make([]sysColumnRow, len(g.Rows))
		for j, r := range g.Rows {
			cols[j] = r.sysColumnRow
		}
		types[i] = model.TableType{
			Schema:   g.Key.Schema,
			Name:     g.Key.Name,
			FullName: model.QualifiedName(g.Key.Schema, g.Key.Name),
			Columns:  sysColumns(in.opts.Target, cols),
		}
	}

	entityIdentifiers(in.opts.Target, len(types),
		func(i int) model.Key { return groups[i].Key },
		func(i int, id string) { types[i].Identifier = id })
	return types, nil, nil
}

// scanRows adapts a cursor into a single-use row stream. The returned
// error pointer is valid once the stream has been drained or abandoned.
func scanRows[R any](rows *sqlx.Rows) (iter.Seq[R], *error) {
	var scanErr error
	seq := func(yield func(R) bool) {
		for rows.Next() {
			var r R
			if err := rows.StructScan(&r); err != nil {
				scanErr = err
				return
			}
			if !yield(r) {
				return
			}
		}
		scanErr = rows.Err()
	}
	return seq, &scanErr
}
