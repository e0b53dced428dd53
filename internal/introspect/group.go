package introspect

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

// group is a run of consecutive rows sharing one key.
type group[R any] struct {
	Key  model.Key
	Rows []R
}

// groupConsecutive folds a row stream sorted by key into groups, closing
// the current group whenever the key changes. Rows are consumed one at a
// time, so the stream may be a live cursor. A key that reappears after its
// group was closed yields ErrOutOfOrder instead of a silently split entity.
func groupConsecutive[R any](rows iter.Seq[R], key func(R) model.Key) ([]group[R], error) {
	var (
		groups []group[R]
		closed = make(map[model.Key]bool)
	)
	for r := range rows {
		k := key(r)
		if n := len(groups); n > 0 && groups[n-1].Key == k {
			groups[n-1].Rows = append(groups[n-1].Rows, r)
			continue
		}
		if closed[k] {
			return nil, fmt.Errorf("%w: %s seen again after its group closed", ErrOutOfOrder, model.QualifiedName(k.Schema, k.Name))
		}
		if n := len(groups); n > 0 {
			closed[groups[n-1].Key] = true
		}
		groups = append(groups, group[R]{Key: k, Rows: []R{r}})
	}
	return slices.Clip(groups), nil
}

// ensureOrdered returns items sorted by key. Catalog list queries already
// ORDER BY (schema, name); the check only re-sorts when the server's
// collation disagrees with model.CompareKeys.
func ensureOrdered[T any](items []T, key func(T) model.Key) []T {
	less := func(a, b T) int { return model.CompareKeys(key(a), key(b)) }
	if slices.IsSortedFunc(items, less) {
		return items
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, less)
	return sorted
}

// ordinalOrder sorts columns by ordinal when a source did not.
func ordinalOrder(cols []model.ResultColumn) []model.ResultColumn {
	byOrdinal := func(a, b model.ResultColumn) int { return cmp.Compare(a.Ordinal, b.Ordinal) }
	if slices.IsSortedFunc(cols, byOrdinal) {
		return cols
	}
	sorted := slices.Clone(cols)
	slices.SortStableFunc(sorted, byOrdinal)
	return sorted
}
