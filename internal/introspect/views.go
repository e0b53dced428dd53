package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/sqlcatalog/internal/ident"
	"github.com/faucetdb/sqlcatalog/internal/model"
)

// readViews lists views and reads each view's columns.
func (in *Introspector) readViews(ctx context.Context) ([]model.View, []model.Diagnostic, error) {
	rows, diags, err := list(ctx, in, "views", viewsQuery, viewRow.key)
	if err != nil {
		return nil, nil, err
	}

	views := make([]model.View, len(rows))
	per := make([][]model.Diagnostic, len(rows))
	err = forEach(ctx, len(rows), in.opts.Concurrency, func(ctx context.Context, i int) error {
		k := rows[i].key()
		v := model.View{
			Schema:   k.Schema,
			Name:     k.Name,
			FullName: model.QualifiedName(k.Schema, k.Name),
			Columns:  []model.ResultColumn{},
		}

		var cols []viewColumnRow
		if err := in.selectRows(ctx, &cols, viewColumnsQuery, k.Schema, k.Name); err != nil {
			if fatal := settle(ctx, err); fatal != nil {
				return fmt.Errorf("view %s: %w", v.FullName, fatal)
			}
			per[i] = []model.Diagnostic{{Kind: model.DiagColumns, Entity: v.FullName, Detail: err.Error()}}
		} else {
			v.Columns = viewColumns(in.opts.Target, cols)
		}

		views[i] = v
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	entityIdentifiers(in.opts.Target, len(views),
		func(i int) model.Key { return rows[i].key() },
		func(i int, id string) { views[i].Identifier = id })
	return views, append(diags, flatten(per)...), nil
}

func viewColumns(target ident.Target, rows []viewColumnRow) []model.ResultColumn {
	scope := ident.NewScope(target)
	cols := make([]model.ResultColumn, len(rows))
	for i, r := range rows {
		cols[i] = model.ResultColumn{
			Name:       r.Name,
			Identifier: scope.Unique(r.Name),
			Type:       r.sqlType(),
			IsNullable: strings.EqualFold(r.IsNullable, "YES"),
			Ordinal:    r.Ordinal,
		}
	}
	return cols
}
