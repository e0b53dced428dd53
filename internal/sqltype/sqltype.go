// Package sqltype models SQL Server column and parameter types as a small
// immutable tagged variant, and resolves catalog type names and
// result-shape descriptor strings into it.
package sqltype

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Type holds.
type Kind int

const (
	// KindSimple is a type with no qualifiers (int, bit, uniqueidentifier).
	KindSimple Kind = iota
	// KindLength is a character or binary type qualified by a length.
	// A length of Max (-1) means varchar(max) style storage.
	KindLength
	// KindPrecisionScale is a numeric or temporal type qualified by a
	// precision and, for numerics, a scale.
	KindPrecisionScale
	// KindStructured references a user-defined table type.
	KindStructured
)

// Max is the length recorded for (max) types.
const Max = -1

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindLength:
		return "length"
	case KindPrecisionScale:
		return "precision_scale"
	case KindStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// Type is an immutable SQL type. The zero value is not meaningful; build
// values with Simple, LengthQualified, PrecisionScale or Structured.
type Type struct {
	kind      Kind
	name      string
	length    int
	precision int
	scale     int
	hasScale  bool
	members   []Member
}

// Member is one column of a composite (structured) type.
type Member struct {
	Name       string `json:"name" yaml:"name"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Type       Type   `json:"type" yaml:"type"`
	Nullable   bool   `json:"nullable" yaml:"nullable"`
	Ordinal    int    `json:"ordinal" yaml:"ordinal"`
}

// Simple returns an unqualified type.
func Simple(name string) Type {
	return Type{kind: KindSimple, name: name}
}

// LengthQualified returns a character/binary type. Use Max for (max).
func LengthQualified(name string, length int) Type {
	return Type{kind: KindLength, name: name, length: length}
}

// PrecisionScale returns a numeric or temporal type. A nil scale leaves
// the scale unset, which is how temporal types are represented.
func PrecisionScale(name string, precision int, scale *int) Type {
	t := Type{kind: KindPrecisionScale, name: name, precision: precision}
	if scale != nil {
		t.scale = *scale
		t.hasScale = true
	}
	return t
}

// Structured returns a reference to a table type. Members is empty until
// the type has been resolved against the catalog.
func Structured(fullName string, members ...Member) Type {
	return Type{kind: KindStructured, name: fullName, members: slices.Clone(members)}
}

// Kind reports the variant.
func (t Type) Kind() Kind { return t.kind }

// Name is the lower-case catalog type name, or the full type name for
// structured types.
func (t Type) Name() string { return t.name }

// Length returns the length of a KindLength type.
func (t Type) Length() (int, bool) {
	return t.length, t.kind == KindLength
}

// Precision returns the precision of a KindPrecisionScale type.
func (t Type) Precision() (int, bool) {
	return t.precision, t.kind == KindPrecisionScale
}

// Scale returns the scale of a KindPrecisionScale type when one was set.
func (t Type) Scale() (int, bool) {
	return t.scale, t.kind == KindPrecisionScale && t.hasScale
}

// Members returns a copy of the resolved composite members.
func (t Type) Members() []Member {
	return slices.Clone(t.members)
}

// Resolved reports whether a structured type carries its composite shape.
func (t Type) Resolved() bool {
	return t.kind == KindStructured && len(t.members) > 0
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind || t.name != o.name || t.length != o.length ||
		t.precision != o.precision || t.scale != o.scale || t.hasScale != o.hasScale ||
		len(t.members) != len(o.members) {
		return false
	}
	for i := range t.members {
		a, b := t.members[i], o.members[i]
		if a.Name != b.Name || a.Identifier != b.Identifier || a.Nullable != b.Nullable ||
			a.Ordinal != b.Ordinal || !a.Type.Equal(b.Type) {
			return false
		}
	}
	return true
}

// String renders the type the way SQL Server spells it, e.g.
// nvarchar(max), decimal(18,2), datetime2(7).
func (t Type) String() string {
	switch t.kind {
	case KindLength:
		if t.length == Max {
			return t.name + "(max)"
		}
		return t.name + "(" + strconv.Itoa(t.length) + ")"
	case KindPrecisionScale:
		if t.hasScale {
			return fmt.Sprintf("%s(%d,%d)", t.name, t.precision, t.scale)
		}
		return fmt.Sprintf("%s(%d)", t.name, t.precision)
	default:
		return t.name
	}
}

// wireType is the serialised form of Type.
type wireType struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Name      string   `json:"name" yaml:"name"`
	Length    *int     `json:"length,omitempty" yaml:"length,omitempty"`
	Precision *int     `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     *int     `json:"scale,omitempty" yaml:"scale,omitempty"`
	Members   []Member `json:"members,omitempty" yaml:"members,omitempty"`
}

func (t Type) wire() wireType {
	w := wireType{Kind: t.kind.String(), Name: t.name, Members: t.members}
	if l, ok := t.Length(); ok {
		w.Length = &l
	}
	if p, ok := t.Precision(); ok {
		w.Precision = &p
	}
	if s, ok := t.Scale(); ok {
		w.Scale = &s
	}
	return w
}

// MarshalJSON implements json.Marshaler.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.wire())
}

// MarshalYAML implements yaml.Marshaler.
func (t Type) MarshalYAML() (interface{}, error) {
	return t.wire(), nil
}

// UnmarshalJSON implements json.Unmarshaler, so a saved model can be
// loaded back.
func (t *Type) UnmarshalJSON(data []byte) error {
	var w wireType
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := w.typ()
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	var w wireType
	if err := value.Decode(&w); err != nil {
		return err
	}
	v, err := w.typ()
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (w wireType) typ() (Type, error) {
	switch w.Kind {
	case "simple":
		return Simple(w.Name), nil
	case "length":
		if w.Length == nil {
			return Type{}, fmt.Errorf("sqltype: %s: length missing", w.Name)
		}
		return LengthQualified(w.Name, *w.Length), nil
	case "precision_scale":
		if w.Precision == nil {
			return Type{}, fmt.Errorf("sqltype: %s: precision missing", w.Name)
		}
		return PrecisionScale(w.Name, *w.Precision, w.Scale), nil
	case "structured":
		return Structured(w.Name, w.Members...), nil
	default:
		return Type{}, fmt.Errorf("sqltype: unknown kind %q", w.Kind)
	}
}

// IsTemporal reports whether name is a date/time type whose precision is
// the fractional-seconds precision.
func IsTemporal(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "datetime2", "datetimeoffset", "time":
		return true
	}
	return false
}

// IsUnicode reports whether name stores two bytes per character.
func IsUnicode(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nchar", "nvarchar", "sysname":
		return true
	}
	return false
}
