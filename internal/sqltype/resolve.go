package sqltype

import (
	"strconv"
	"strings"
)

type family int

const (
	familySimple family = iota
	familyLength
	familyNumeric
	familyTemporal
)

type typeSpec struct {
	family        family
	defaultLength int
}

// knownTypes lists the catalog type names the resolver understands. Any
// other name falls back to varchar.
var knownTypes = map[string]typeSpec{
	"bigint":           {family: familySimple},
	"int":              {family: familySimple},
	"smallint":         {family: familySimple},
	"tinyint":          {family: familySimple},
	"bit":              {family: familySimple},
	"uniqueidentifier": {family: familySimple},
	"float":            {family: familySimple},
	"real":             {family: familySimple},
	"money":            {family: familySimple},
	"smallmoney":       {family: familySimple},
	"date":             {family: familySimple},
	"datetime":         {family: familySimple},
	"smalldatetime":    {family: familySimple},
	"xml":              {family: familySimple},
	"text":             {family: familySimple},
	"ntext":            {family: familySimple},
	"image":            {family: familySimple},
	"timestamp":        {family: familySimple},
	"rowversion":       {family: familySimple},
	"sql_variant":      {family: familySimple},
	"hierarchyid":      {family: familySimple},
	"geography":        {family: familySimple},
	"geometry":         {family: familySimple},

	"decimal":        {family: familyNumeric},
	"numeric":        {family: familyNumeric},
	"datetime2":      {family: familyTemporal},
	"datetimeoffset": {family: familyTemporal},
	"time":           {family: familyTemporal},

	"varchar":   {family: familyLength, defaultLength: Max},
	"nvarchar":  {family: familyLength, defaultLength: Max},
	"varbinary": {family: familyLength, defaultLength: Max},
	"char":      {family: familyLength, defaultLength: 1},
	"nchar":     {family: familyLength, defaultLength: 1},
	"binary":    {family: familyLength, defaultLength: 1},
	"sysname":   {family: familyLength, defaultLength: 128},
}

const (
	defaultNumericPrecision  = 18
	defaultNumericScale      = 0
	defaultTemporalPrecision = 7
)

// Fallback is the type used for anything the resolver cannot classify.
func Fallback() Type {
	return LengthQualified("varchar", Max)
}

// Known reports whether name is a primitive type the resolver recognises.
func Known(name string) bool {
	_, ok := knownTypes[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Resolve maps a catalog type name plus its optional facets to a Type.
// Unknown names resolve to varchar of the given length (max when absent).
func Resolve(typeName string, length, precision, scale *int) Type {
	name := strings.ToLower(strings.TrimSpace(typeName))
	spec, ok := knownTypes[name]
	if !ok {
		return LengthQualified("varchar", orDefault(length, Max))
	}

	switch spec.family {
	case familyLength:
		return LengthQualified(name, orDefault(length, spec.defaultLength))
	case familyNumeric:
		s := orDefault(scale, defaultNumericScale)
		return PrecisionScale(name, orDefault(precision, defaultNumericPrecision), &s)
	case familyTemporal:
		return PrecisionScale(name, orDefault(precision, defaultTemporalPrecision), nil)
	default:
		return Simple(name)
	}
}

// ParseDescriptor parses the system_type_name strings produced by the
// result-shape probe: "int", "nvarchar(50)", "varbinary(max)",
// "decimal(18,2)". It never fails; unrecognised or malformed input
// yields Fallback.
func ParseDescriptor(text string) Type {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Fallback()
	}

	open := strings.IndexByte(t, '(')
	if open < 0 {
		if strings.ContainsRune(t, ')') || !Known(t) {
			return Fallback()
		}
		return Resolve(t, nil, nil, nil)
	}

	name := strings.TrimSpace(t[:open])
	rest := t[open+1:]
	end := strings.IndexByte(rest, ')')
	if end < 0 || end != len(rest)-1 || strings.ContainsRune(rest[:end], '(') {
		return Fallback()
	}
	spec, ok := knownTypes[name]
	if !ok {
		return Fallback()
	}

	args := strings.Split(rest[:end], ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}

	switch spec.family {
	case familySimple:
		return Simple(name)
	case familyLength:
		if len(args) != 1 {
			return Fallback()
		}
		if args[0] == "max" {
			return LengthQualified(name, Max)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return Fallback()
		}
		return LengthQualified(name, n)
	case familyTemporal:
		if len(args) != 1 {
			return Fallback()
		}
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 0 {
			return Fallback()
		}
		return PrecisionScale(name, p, nil)
	case familyNumeric:
		if len(args) > 2 {
			return Fallback()
		}
		p, err := strconv.Atoi(args[0])
		if err != nil || p <= 0 {
			return Fallback()
		}
		s := defaultNumericScale
		if len(args) == 2 {
			if s, err = strconv.Atoi(args[1]); err != nil || s < 0 {
				return Fallback()
			}
		}
		return PrecisionScale(name, p, &s)
	}
	return Fallback()
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
