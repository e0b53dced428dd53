package introspect

import (
	"context"
	"fmt"

	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

// readFunctions lists scalar and table-valued functions with their
// parameters. Scalar functions carry their return type; table-valued ones
// carry the columns of the returned table.
func (in *Introspector) readFunctions(ctx context.Context) ([]model.Function, []model.Diagnostic, error) {
	rows, diags, err := list(ctx, in, "functions", functionsQuery, functionRow.key)
	if err != nil {
		return nil, nil, err
	}

	fns := make([]model.Function, len(rows))
	per := make([][]model.Diagnostic, len(rows))
	err = forEach(ctx, len(rows), in.opts.Concurrency, func(ctx context.Context, i int) error {
		row := rows[i]
		k := row.key()
		f := model.Function{
			Schema:        k.Schema,
			Name:          k.Name,
			FullName:      model.QualifiedName(k.Schema, k.Name),
			IsTableValued: row.tableValued(),
			Columns:       []model.ResultColumn{},
		}

		params, d, err := in.readParameters(ctx, k)
		if err != nil {
			return fmt.Errorf("function %s: %w", f.FullName, err)
		}
		f.Parameters = params

		if f.IsTableValued {
			var cols []sysColumnRow
			if err := in.selectRows(ctx, &cols, objectColumnsQuery, f.FullName); err != nil {
				if fatal := settle(ctx, err); fatal != nil {
					return fmt.Errorf("function %s: %w", f.FullName, fatal)
				}
				d = append(d, model.Diagnostic{Kind: model.DiagColumns, Entity: f.FullName, Detail: err.Error()})
			} else {
				f.Columns = sysColumns(in.opts.Target, cols)
			}
		} else if ret := row.returnType(); ret != nil {
			f.ScalarReturn = ret
		} else {
			fallback := sqltype.Fallback()
			f.ScalarReturn = &fallback
		}

		fns[i], per[i] = f, d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	entityIdentifiers(in.opts.Target, len(fns),
		func(i int) model.Key { return rows[i].key() },
		func(i int, id string) { fns[i].Identifier = id })
	return fns, append(diags, flatten(per)...), nil
}
