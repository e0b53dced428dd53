package contract

import (
	"testing"

	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

var (
	intType    = sqltype.Simple("int")
	bigintType = sqltype.Simple("bigint")
)

func col(name string, typ sqltype.Type, nullable bool) model.ResultColumn {
	return model.ResultColumn{Name: name, Identifier: name, Type: typ, IsNullable: nullable}
}

func proc(name string, params []model.Parameter, cols ...model.ResultColumn) model.StoredProcedure {
	p := model.StoredProcedure{
		Schema: "dbo", Name: name, FullName: model.QualifiedName("dbo", name),
		Parameters: params, ResultSets: []model.ResultSet{},
	}
	if len(cols) > 0 {
		p.ResultSets = []model.ResultSet{{Index: 0, Columns: cols}}
	}
	return p
}

func single(t *testing.T, r Report) DriftItem {
	t.Helper()
	if len(r.Items) != 1 {
		t.Fatalf("expected 1 item, got %d: %+v", len(r.Items), r.Items)
	}
	return r.Items[0]
}

func TestDiffDatabase_NoDrift(t *testing.T) {
	db := &model.Database{
		StoredProcedures: []model.StoredProcedure{
			proc("GetUser", []model.Parameter{{Name: "@id", Type: intType}}, col("id", intType, false)),
		},
		Views: []model.View{{Schema: "dbo", Name: "Users", FullName: "[dbo].[Users]",
			Columns: []model.ResultColumn{col("id", intType, false)}}},
	}

	report := DiffDatabase(db, db)

	if report.HasDrift {
		t.Errorf("expected no drift, got %d items", len(report.Items))
	}
	if report.HasBreaking {
		t.Error("expected no breaking changes")
	}
	if report.Items == nil {
		t.Error("Items should be an empty list, not nil")
	}
}

func TestDiffDatabase_EntityAddedAndRemoved(t *testing.T) {
	old := &model.Database{StoredProcedures: []model.StoredProcedure{proc("A", nil), proc("B", nil)}}
	cur := &model.Database{StoredProcedures: []model.StoredProcedure{proc("B", nil), proc("C", nil)}}

	report := DiffDatabase(old, cur)

	if report.BreakingCount != 1 || report.AdditiveCount != 1 {
		t.Fatalf("counts = %d breaking, %d additive", report.BreakingCount, report.AdditiveCount)
	}
	if got := report.Items[0]; got.Category != EntityRemoved || got.Entity != "[dbo].[A]" || got.Kind != KindProcedure {
		t.Errorf("first item = %+v", got)
	}
	if got := report.Items[1]; got.Category != EntityAdded || got.Entity != "[dbo].[C]" {
		t.Errorf("second item = %+v", got)
	}
}

func TestDiffDatabase_ParameterChanges(t *testing.T) {
	tests := []struct {
		name     string
		old, cur []model.Parameter
		category string
	}{
		{"type changed",
			[]model.Parameter{{Name: "@id", Type: intType}},
			[]model.Parameter{{Name: "@id", Type: bigintType}},
			ParameterChanged},
		{"removed",
			[]model.Parameter{{Name: "@id", Type: intType}},
			[]model.Parameter{},
			ParameterRemoved},
		{"added",
			[]model.Parameter{},
			[]model.Parameter{{Name: "@flag", Type: sqltype.Simple("bit")}},
			ParameterAdded},
		{"became output",
			[]model.Parameter{{Name: "@n", Type: intType}},
			[]model.Parameter{{Name: "@n", Type: intType, IsOutput: true}},
			DirectionChanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := &model.Database{StoredProcedures: []model.StoredProcedure{proc("P", tt.old)}}
			cur := &model.Database{StoredProcedures: []model.StoredProcedure{proc("P", tt.cur)}}

			item := single(t, DiffDatabase(old, cur))
			if item.Category != tt.category || item.Type != DriftBreaking {
				t.Errorf("item = %+v, want breaking %s", item, tt.category)
			}
		})
	}
}

func TestDiffDatabase_ParameterNamesIgnoreCase(t *testing.T) {
	old := &model.Database{StoredProcedures: []model.StoredProcedure{proc("P", []model.Parameter{{Name: "@Id", Type: intType}})}}
	cur := &model.Database{StoredProcedures: []model.StoredProcedure{proc("P", []model.Parameter{{Name: "@ID", Type: intType}})}}

	if report := DiffDatabase(old, cur); report.HasDrift {
		t.Errorf("renaming case only should not drift: %+v", report.Items)
	}
}

func TestDiffDatabase_ResultColumns(t *testing.T) {
	old := &model.Database{StoredProcedures: []model.StoredProcedure{
		proc("P", nil, col("id", intType, false), col("name", sqltype.LengthQualified("nvarchar", 50), false)),
	}}
	cur := &model.Database{StoredProcedures: []model.StoredProcedure{
		proc("P", nil, col("id", bigintType, false), col("name", sqltype.LengthQualified("nvarchar", 50), true), col("bio", sqltype.LengthQualified("nvarchar", sqltype.Max), true)),
	}}

	report := DiffDatabase(old, cur)

	want := []struct {
		category string
		member   string
		typ      DriftType
	}{
		{TypeChanged, "id", DriftBreaking},
		{NullableChanged, "name", DriftBreaking},
		{ColumnAdded, "bio", DriftAdditive},
	}
	if len(report.Items) != len(want) {
		t.Fatalf("items = %+v", report.Items)
	}
	for i, w := range want {
		got := report.Items[i]
		if got.Category != w.category || got.Member != w.member || got.Type != w.typ {
			t.Errorf("item %d = %+v, want %s %s %s", i, got, w.typ, w.category, w.member)
		}
	}
	if report.Items[0].OldValue != "int" || report.Items[0].NewValue != "bigint" {
		t.Errorf("type change values = %q -> %q", report.Items[0].OldValue, report.Items[0].NewValue)
	}
}

func TestDiffDatabase_ResultShape(t *testing.T) {
	described := &model.Database{StoredProcedures: []model.StoredProcedure{proc("P", nil, col("id", intType, false))}}
	opaque := &model.Database{StoredProcedures: []model.StoredProcedure{proc("P", nil)}}

	if item := single(t, DiffDatabase(described, opaque)); item.Category != ResultShapeRemoved || item.Type != DriftBreaking {
		t.Errorf("lost shape = %+v", item)
	}
	if item := single(t, DiffDatabase(opaque, described)); item.Category != ResultShapeAdded || item.Type != DriftAdditive {
		t.Errorf("gained shape = %+v", item)
	}
}

func TestDiffDatabase_TableTypeIsWriteSide(t *testing.T) {
	tt := func(cols ...model.ResultColumn) *model.Database {
		return &model.Database{TableTypes: []model.TableType{{Schema: "dbo", Name: "IdList", FullName: "[dbo].[IdList]", Columns: cols}}}
	}

	// Accepting NULL is harmless for writers.
	if item := single(t, DiffDatabase(tt(col("id", intType, false)), tt(col("id", intType, true)))); item.Type != DriftAdditive {
		t.Errorf("became nullable = %+v", item)
	}
	// Rejecting NULL breaks writers.
	if item := single(t, DiffDatabase(tt(col("id", intType, true)), tt(col("id", intType, false)))); item.Type != DriftBreaking {
		t.Errorf("became not null = %+v", item)
	}
	// A new required member breaks writers; an optional one does not.
	if item := single(t, DiffDatabase(tt(col("id", intType, false)), tt(col("id", intType, false), col("qty", intType, false)))); item.Type != DriftBreaking {
		t.Errorf("required member added = %+v", item)
	}
	if item := single(t, DiffDatabase(tt(col("id", intType, false)), tt(col("id", intType, false), col("note", intType, true)))); item.Type != DriftAdditive {
		t.Errorf("optional member added = %+v", item)
	}
}

func TestDiffDatabase_Functions(t *testing.T) {
	fn := func(ret *sqltype.Type, cols ...model.ResultColumn) *model.Database {
		return &model.Database{Functions: []model.Function{{
			Schema: "dbo", Name: "F", FullName: "[dbo].[F]",
			IsTableValued: ret == nil, ScalarReturn: ret, Columns: cols,
		}}}
	}

	item := single(t, DiffDatabase(fn(&intType), fn(&bigintType)))
	if item.Category != ReturnTypeChanged || item.OldValue != "int" || item.NewValue != "bigint" {
		t.Errorf("return type change = %+v", item)
	}

	item = single(t, DiffDatabase(fn(&intType), fn(nil, col("id", intType, false))))
	if item.Category != FunctionKindChanged || item.NewValue != "table-valued" {
		t.Errorf("kind change = %+v", item)
	}

	item = single(t, DiffDatabase(fn(nil, col("id", intType, false)), fn(nil)))
	if item.Category != ColumnRemoved || item.Member != "id" {
		t.Errorf("tvf column removed = %+v", item)
	}
}
