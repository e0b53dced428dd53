package introspect

import (
	"context"
	"fmt"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

// readProcedures lists stored procedures and, per procedure, reads its
// parameters and probes its first result set.
func (in *Introspector) readProcedures(ctx context.Context) ([]model.StoredProcedure, []model.Diagnostic, error) {
	rows, diags, err := list(ctx, in, "procedures", proceduresQuery, entityRow.key)
	if err != nil {
		return nil, nil, err
	}

	procs := make([]model.StoredProcedure, len(rows))
	per := make([][]model.Diagnostic, len(rows))
	err = forEach(ctx, len(rows), in.opts.Concurrency, func(ctx context.Context, i int) error {
		k := rows[i].key()
		p := model.StoredProcedure{
			Schema:   k.Schema,
			Name:     k.Name,
			FullName: model.QualifiedName(k.Schema, k.Name),
		}

		params, d, err := in.readParameters(ctx, k)
		if err != nil {
			return fmt.Errorf("procedure %s: %w", p.FullName, err)
		}
		p.Parameters = params

		sets, diag, err := in.probeResultShape(ctx, k)
		if err != nil {
			return fmt.Errorf("procedure %s: %w", p.FullName, err)
		}
		p.ResultSets = sets
		if diag != nil {
			d = append(d, *diag)
		}

		procs[i], per[i] = p, d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	entityIdentifiers(in.opts.Target, len(procs),
		func(i int) model.Key { return rows[i].key() },
		func(i int, id string) { procs[i].Identifier = id })
	return procs, append(diags, flatten(per)...), nil
}
