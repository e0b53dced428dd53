package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

// side says which way data flows through a column set. Result sets, views
// and table-valued functions are read by callers; table types are written.
// Nullability changes break in opposite directions on the two sides.
type side int

const (
	readSide side = iota
	writeSide
)

// DiffDatabase compares current against baseline.
func DiffDatabase(baseline, current *model.Database) Report {
	r := Report{Items: []DriftItem{}, CheckedAt: time.Now().UTC()}

	diffEntities(&r, KindProcedure, baseline.StoredProcedures, current.StoredProcedures,
		func(p model.StoredProcedure) (model.Key, string) { return model.Key{Schema: p.Schema, Name: p.Name}, p.FullName },
		diffProcedure)
	diffEntities(&r, KindFunction, baseline.Functions, current.Functions,
		func(f model.Function) (model.Key, string) { return model.Key{Schema: f.Schema, Name: f.Name}, f.FullName },
		diffFunction)
	diffEntities(&r, KindView, baseline.Views, current.Views,
		func(v model.View) (model.Key, string) { return model.Key{Schema: v.Schema, Name: v.Name}, v.FullName },
		func(r *Report, entity string, a, b model.View) {
			diffColumns(r, KindView, entity, a.Columns, b.Columns, readSide)
		})
	diffEntities(&r, KindTableType, baseline.TableTypes, current.TableTypes,
		func(t model.TableType) (model.Key, string) { return model.Key{Schema: t.Schema, Name: t.Name}, t.FullName },
		func(r *Report, entity string, a, b model.TableType) {
			diffColumns(r, KindTableType, entity, a.Columns, b.Columns, writeSide)
		})

	for _, item := range r.Items {
		switch item.Type {
		case DriftAdditive:
			r.AdditiveCount++
		case DriftBreaking:
			r.BreakingCount++
		}
	}
	r.HasDrift = len(r.Items) > 0
	r.HasBreaking = r.BreakingCount > 0
	return r
}

func diffEntities[T any](r *Report, kind string, old, cur []T, id func(T) (model.Key, string), diff func(*Report, string, T, T)) {
	curByKey := make(map[model.Key]T, len(cur))
	for _, e := range cur {
		k, _ := id(e)
		curByKey[k] = e
	}
	oldKeys := make(map[model.Key]bool, len(old))

	for _, a := range old {
		k, entity := id(a)
		oldKeys[k] = true
		b, exists := curByKey[k]
		if !exists {
			r.add(DriftItem{
				Type:        DriftBreaking,
				Category:    EntityRemoved,
				Kind:        kind,
				Entity:      entity,
				Description: fmt.Sprintf("%s %s was removed", kind, entity),
			})
			continue
		}
		diff(r, entity, a, b)
	}

	for _, b := range cur {
		k, entity := id(b)
		if !oldKeys[k] {
			r.add(DriftItem{
				Type:        DriftAdditive,
				Category:    EntityAdded,
				Kind:        kind,
				Entity:      entity,
				Description: fmt.Sprintf("%s %s was added", kind, entity),
			})
		}
	}
}

func diffProcedure(r *Report, entity string, a, b model.StoredProcedure) {
	diffParameters(r, KindProcedure, entity, a.Parameters, b.Parameters)

	switch {
	case len(a.ResultSets) > 0 && len(b.ResultSets) == 0:
		r.add(DriftItem{
			Type:        DriftBreaking,
			Category:    ResultShapeRemoved,
			Kind:        KindProcedure,
			Entity:      entity,
			Description: fmt.Sprintf("%s no longer has a describable result set", entity),
		})
	case len(a.ResultSets) == 0 && len(b.ResultSets) > 0:
		r.add(DriftItem{
			Type:        DriftAdditive,
			Category:    ResultShapeAdded,
			Kind:        KindProcedure,
			Entity:      entity,
			Description: fmt.Sprintf("%s now has a describable result set", entity),
		})
	case len(a.ResultSets) > 0:
		diffColumns(r, KindProcedure, entity, a.ResultSets[0].Columns, b.ResultSets[0].Columns, readSide)
	}
}

func diffFunction(r *Report, entity string, a, b model.Function) {
	diffParameters(r, KindFunction, entity, a.Parameters, b.Parameters)

	if a.IsTableValued != b.IsTableValued {
		r.add(DriftItem{
			Type:        DriftBreaking,
			Category:    FunctionKindChanged,
			Kind:        KindFunction,
			Entity:      entity,
			OldValue:    functionKind(a),
			NewValue:    functionKind(b),
			Description: fmt.Sprintf("%s changed from %s to %s", entity, functionKind(a), functionKind(b)),
		})
		return
	}
	if a.IsTableValued {
		diffColumns(r, KindFunction, entity, a.Columns, b.Columns, readSide)
		return
	}
	if old, cur := typeName(a.ScalarReturn), typeName(b.ScalarReturn); old != cur {
		r.add(DriftItem{
			Type:        DriftBreaking,
			Category:    ReturnTypeChanged,
			Kind:        KindFunction,
			Entity:      entity,
			OldValue:    old,
			NewValue:    cur,
			Description: fmt.Sprintf("%s return type changed from %s to %s", entity, old, cur),
		})
	}
}

// diffParameters matches parameters by name. Parameter names are
// case-insensitive in SQL Server.
func diffParameters(r *Report, kind, entity string, old, cur []model.Parameter) {
	curByName := make(map[string]model.Parameter, len(cur))
	for _, p := range cur {
		curByName[strings.ToLower(p.Name)] = p
	}
	oldNames := make(map[string]bool, len(old))

	for _, a := range old {
		oldNames[strings.ToLower(a.Name)] = true
		b, exists := curByName[strings.ToLower(a.Name)]
		if !exists {
			r.add(DriftItem{
				Type:        DriftBreaking,
				Category:    ParameterRemoved,
				Kind:        kind,
				Entity:      entity,
				Member:      a.Name,
				OldValue:    a.Type.String(),
				Description: fmt.Sprintf("parameter %s was removed from %s", a.Name, entity),
			})
			continue
		}
		if a.Type.String() != b.Type.String() {
			r.add(DriftItem{
				Type:        DriftBreaking,
				Category:    ParameterChanged,
				Kind:        kind,
				Entity:      entity,
				Member:      a.Name,
				OldValue:    a.Type.String(),
				NewValue:    b.Type.String(),
				Description: fmt.Sprintf("parameter %s of %s changed from %s to %s", a.Name, entity, a.Type, b.Type),
			})
		}
		if a.IsOutput != b.IsOutput {
			r.add(DriftItem{
				Type:        DriftBreaking,
				Category:    DirectionChanged,
				Kind:        kind,
				Entity:      entity,
				Member:      a.Name,
				OldValue:    direction(a.IsOutput),
				NewValue:    direction(b.IsOutput),
				Description: fmt.Sprintf("parameter %s of %s changed from %s to %s", a.Name, entity, direction(a.IsOutput), direction(b.IsOutput)),
			})
		}
	}

	// Defaults are not in the model, so a new parameter may be required.
	for _, b := range cur {
		if !oldNames[strings.ToLower(b.Name)] {
			r.add(DriftItem{
				Type:        DriftBreaking,
				Category:    ParameterAdded,
				Kind:        kind,
				Entity:      entity,
				Member:      b.Name,
				NewValue:    b.Type.String(),
				Description: fmt.Sprintf("parameter %s was added to %s", b.Name, entity),
			})
		}
	}
}

// diffColumns matches columns by name, case-insensitively.
func diffColumns(r *Report, kind, entity string, old, cur []model.ResultColumn, s side) {
	curByName := make(map[string]model.ResultColumn, len(cur))
	for _, c := range cur {
		curByName[strings.ToLower(c.Name)] = c
	}
	oldNames := make(map[string]bool, len(old))

	for _, a := range old {
		oldNames[strings.ToLower(a.Name)] = true
		b, exists := curByName[strings.ToLower(a.Name)]
		if !exists {
			r.add(DriftItem{
				Type:        DriftBreaking,
				Category:    ColumnRemoved,
				Kind:        kind,
				Entity:      entity,
				Member:      a.Name,
				OldValue:    a.Type.String(),
				Description: fmt.Sprintf("column %q was removed from %s", a.Name, entity),
			})
			continue
		}

		if a.Type.String() != b.Type.String() {
			r.add(DriftItem{
				Type:        DriftBreaking,
				Category:    TypeChanged,
				Kind:        kind,
				Entity:      entity,
				Member:      a.Name,
				OldValue:    a.Type.String(),
				NewValue:    b.Type.String(),
				Description: fmt.Sprintf("column %q of %s changed from %s to %s", a.Name, entity, a.Type, b.Type),
			})
		}

		if a.IsNullable != b.IsNullable {
			// Readers break when a column starts returning NULL; writers
			// break when a column stops accepting it.
			breaking := b.IsNullable == (s == readSide)
			item := DriftItem{
				Type:        DriftAdditive,
				Category:    NullableChanged,
				Kind:        kind,
				Entity:      entity,
				Member:      a.Name,
				OldValue:    nullability(a.IsNullable),
				NewValue:    nullability(b.IsNullable),
				Description: fmt.Sprintf("column %q of %s changed from %s to %s", a.Name, entity, nullability(a.IsNullable), nullability(b.IsNullable)),
			}
			if breaking {
				item.Type = DriftBreaking
			}
			r.add(item)
		}
	}

	for _, b := range cur {
		if oldNames[strings.ToLower(b.Name)] {
			continue
		}
		item := DriftItem{
			Type:        DriftAdditive,
			Category:    ColumnAdded,
			Kind:        kind,
			Entity:      entity,
			Member:      b.Name,
			NewValue:    b.Type.String(),
			Description: fmt.Sprintf("column %q was added to %s", b.Name, entity),
		}
		// Writers must now supply a value for a new NOT NULL member.
		if s == writeSide && !b.IsNullable {
			item.Type = DriftBreaking
		}
		r.add(item)
	}
}

func (r *Report) add(item DriftItem) {
	r.Items = append(r.Items, item)
}

func typeName(t *sqltype.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func functionKind(f model.Function) string {
	if f.IsTableValued {
		return "table-valued"
	}
	return "scalar"
}

func direction(out bool) string {
	if out {
		return "output"
	}
	return "input"
}

func nullability(nullable bool) string {
	if nullable {
		return "nullable"
	}
	return "not null"
}
