// Package contract compares two introspection results and classifies each
// difference by whether it can break code generated from the older one.
package contract

import "time"

// DriftType classifies the severity of a change.
type DriftType string

const (
	// DriftAdditive means callers built against the baseline keep working.
	DriftAdditive DriftType = "additive"
	// DriftBreaking means callers built against the baseline may fail to
	// compile or fail at run time.
	DriftBreaking DriftType = "breaking"
)

// Change categories.
const (
	EntityAdded         = "entity_added"
	EntityRemoved       = "entity_removed"
	ParameterAdded      = "parameter_added"
	ParameterRemoved    = "parameter_removed"
	ParameterChanged    = "parameter_type_changed"
	DirectionChanged    = "parameter_direction_changed"
	ColumnAdded         = "column_added"
	ColumnRemoved       = "column_removed"
	TypeChanged         = "type_changed"
	NullableChanged     = "nullable_changed"
	ReturnTypeChanged   = "return_type_changed"
	FunctionKindChanged = "function_kind_changed"
	ResultShapeAdded    = "result_shape_added"
	ResultShapeRemoved  = "result_shape_removed"
)

// Entity kinds as reported in DriftItem.Kind.
const (
	KindProcedure = "procedure"
	KindFunction  = "function"
	KindView      = "view"
	KindTableType = "table_type"
)

// DriftItem describes one difference between the baseline and current
// models. Member names the parameter or column when the change is below
// entity level.
type DriftItem struct {
	Type        DriftType `json:"type"`
	Category    string    `json:"category"`
	Kind        string    `json:"kind"`
	Entity      string    `json:"entity"`
	Member      string    `json:"member,omitempty"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	Description string    `json:"description"`
}

// Report summarizes all differences between two models. Items follow the
// baseline's entity order, with additions after the entities they were
// compared against.
type Report struct {
	HasDrift      bool        `json:"has_drift"`
	HasBreaking   bool        `json:"has_breaking"`
	AdditiveCount int         `json:"additive_count"`
	BreakingCount int         `json:"breaking_count"`
	Items         []DriftItem `json:"items"`
	CheckedAt     time.Time   `json:"checked_at"`
}
