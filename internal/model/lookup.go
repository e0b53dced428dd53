package model

import (
	"sort"
	"strings"
)

// Procedure returns the stored procedure with the given schema and name.
func (d *Database) Procedure(schema, name string) (StoredProcedure, bool) {
	i, ok := search(len(d.StoredProcedures), Key{schema, name}, func(i int) Key {
		return Key{d.StoredProcedures[i].Schema, d.StoredProcedures[i].Name}
	})
	if !ok {
		return StoredProcedure{}, false
	}
	return d.StoredProcedures[i], true
}

// Function returns the function with the given schema and name.
func (d *Database) Function(schema, name string) (Function, bool) {
	i, ok := search(len(d.Functions), Key{schema, name}, func(i int) Key {
		return Key{d.Functions[i].Schema, d.Functions[i].Name}
	})
	if !ok {
		return Function{}, false
	}
	return d.Functions[i], true
}

// View returns the view with the given schema and name.
func (d *Database) View(schema, name string) (View, bool) {
	i, ok := search(len(d.Views), Key{schema, name}, func(i int) Key {
		return Key{d.Views[i].Schema, d.Views[i].Name}
	})
	if !ok {
		return View{}, false
	}
	return d.Views[i], true
}

// TableType returns the table type with the given schema and name.
func (d *Database) TableType(schema, name string) (TableType, bool) {
	i, ok := search(len(d.TableTypes), Key{schema, name}, func(i int) Key {
		return Key{d.TableTypes[i].Schema, d.TableTypes[i].Name}
	})
	if !ok {
		return TableType{}, false
	}
	return d.TableTypes[i], true
}

// search relies on the (schema, name) ordering every list in Database has.
// An exact match wins; otherwise schema and name match case-insensitively,
// as the default collation would resolve them.
func search(n int, want Key, at func(int) Key) (int, bool) {
	i := sort.Search(n, func(i int) bool { return CompareKeys(at(i), want) >= 0 })
	if i < n && at(i) == want {
		return i, true
	}

	// Lists sort on the lower-cased schema first, so every fold match sits
	// in one run that starts here.
	schema := strings.ToLower(want.Schema)
	j := sort.Search(n, func(i int) bool { return strings.ToLower(at(i).Schema) >= schema })
	for ; j < n && strings.EqualFold(at(j).Schema, want.Schema); j++ {
		if strings.EqualFold(at(j).Name, want.Name) {
			return j, true
		}
	}
	return 0, false
}

// Counts summarises the number of entities of each kind.
type Counts struct {
	StoredProcedures int `json:"stored_procedures"`
	Functions        int `json:"functions"`
	Views            int `json:"views"`
	TableTypes       int `json:"table_types"`
	Diagnostics      int `json:"diagnostics"`
}

// Counts returns the entity counts of d.
func (d *Database) Counts() Counts {
	return Counts{
		StoredProcedures: len(d.StoredProcedures),
		Functions:        len(d.Functions),
		Views:            len(d.Views),
		TableTypes:       len(d.TableTypes),
		Diagnostics:      len(d.Diagnostics),
	}
}
