package introspect

import (
	"context"
	"strings"
	"time"

	"github.com/faucetdb/sqlcatalog/internal/ident"
	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

const defaultSchema = "dbo"

// StructuredLookup is the outcome of resolving one table type. When Found
// is false, Err says why: a query error, or errNoColumns when the type does
// not exist or has no columns. Callers decide with IsFatal whether Err
// ends the run; otherwise they type the parameter as sqltype.Fallback().
type StructuredLookup struct {
	Type  sqltype.Type
	Found bool
	Err   error
}

// StructuredResolver synthesises the composite shape of a user-defined
// table type from its column definitions.
type StructuredResolver struct {
	db      Querier
	target  ident.Target
	timeout time.Duration
}

// NewStructuredResolver returns a resolver querying db. A zero timeout
// leaves queries bounded only by the caller's context.
func NewStructuredResolver(db Querier, target ident.Target, timeout time.Duration) *StructuredResolver {
	return &StructuredResolver{db: db, target: target, timeout: timeout}
}

// Resolve looks up fullTypeName ("[schema].[name]", "schema.name" or a
// bare "name" in dbo) and returns its members in declaration order with
// de-duplicated identifiers. Resolution reads the catalog afresh on every
// call; the same name always yields a structurally equal Type.
func (r *StructuredResolver) Resolve(ctx context.Context, fullTypeName string) StructuredLookup {
	schema, name := splitTypeName(fullTypeName)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	var rows []sysColumnRow
	if err := r.db.SelectContext(ctx, &rows, structuredTypeColumnsQuery, schema, name); err != nil {
		return StructuredLookup{Err: err}
	}
	if len(rows) == 0 {
		return StructuredLookup{Err: errNoColumns}
	}

	scope := ident.NewScope(r.target)
	members := make([]sqltype.Member, len(rows))
	for i, row := range rows {
		members[i] = sqltype.Member{
			Name:       row.Name,
			Identifier: scope.Unique(row.Name),
			Type:       row.sqlType(),
			Nullable:   row.IsNullable,
			Ordinal:    row.ColumnID,
		}
	}
	return StructuredLookup{
		Type:  sqltype.Structured(model.QualifiedName(schema, name), members...),
		Found: true,
	}
}

// splitTypeName splits a one- or two-part name, honouring [bracketed]
// parts that contain dots or escaped ]] brackets. Extra leading parts
// (database.schema.name) are ignored.
func splitTypeName(full string) (schema, name string) {
	var (
		parts     []string
		b         strings.Builder
		inBracket bool
	)
	for i := 0; i < len(full); i++ {
		c := full[i]
		switch {
		case inBracket && c == ']':
			if i+1 < len(full) && full[i+1] == ']' {
				b.WriteByte(']')
				i++
				continue
			}
			inBracket = false
		case !inBracket && c == '[':
			inBracket = true
		case !inBracket && c == '.':
			parts = append(parts, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	parts = append(parts, strings.TrimSpace(b.String()))

	name = parts[len(parts)-1]
	if len(parts) > 1 {
		schema = parts[len(parts)-2]
	}
	if schema == "" {
		schema = defaultSchema
	}
	return schema, name
}
