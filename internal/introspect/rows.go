package introspect

import (
	"strings"

	"github.com/faucetdb/sqlcatalog/internal/model"
	"github.com/faucetdb/sqlcatalog/internal/sqltype"
)

// entityRow is one row of a (schema, name) list query.
type entityRow struct {
	Schema string `db:"SPECIFIC_SCHEMA"`
	Name   string `db:"SPECIFIC_NAME"`
}

func (r entityRow) key() model.Key { return model.Key{Schema: r.Schema, Name: r.Name} }

type viewRow struct {
	Schema string `db:"TABLE_SCHEMA"`
	Name   string `db:"TABLE_NAME"`
}

func (r viewRow) key() model.Key { return model.Key{Schema: r.Schema, Name: r.Name} }

// functionRow holds a function and its scalar return facets.
type functionRow struct {
	Schema            string  `db:"SPECIFIC_SCHEMA"`
	Name              string  `db:"SPECIFIC_NAME"`
	DataType          *string `db:"DATA_TYPE"`
	MaxLength         *int    `db:"CHARACTER_MAXIMUM_LENGTH"`
	Precision         *int    `db:"NUMERIC_PRECISION"`
	Scale             *int    `db:"NUMERIC_SCALE"`
	DatetimePrecision *int    `db:"DATETIME_PRECISION"`
}

func (r functionRow) key() model.Key { return model.Key{Schema: r.Schema, Name: r.Name} }

func (r functionRow) tableValued() bool {
	return r.DataType != nil && strings.EqualFold(*r.DataType, "TABLE")
}

// returnType is nil for table-valued functions and for rows without a
// DATA_TYPE.
func (r functionRow) returnType() *sqltype.Type {
	if r.DataType == nil || r.tableValued() {
		return nil
	}
	t := infoSchemaType(*r.DataType, r.MaxLength, r.Precision, r.Scale, r.DatetimePrecision)
	return &t
}

// parameterRow holds one row of INFORMATION_SCHEMA.PARAMETERS.
type parameterRow struct {
	Name              string  `db:"PARAMETER_NAME"`
	Ordinal           int     `db:"ORDINAL_POSITION"`
	DataType          string  `db:"DATA_TYPE"`
	MaxLength         *int    `db:"CHARACTER_MAXIMUM_LENGTH"`
	Precision         *int    `db:"NUMERIC_PRECISION"`
	Scale             *int    `db:"NUMERIC_SCALE"`
	DatetimePrecision *int    `db:"DATETIME_PRECISION"`
	Mode              *string `db:"PARAMETER_MODE"`
	UDTSchema         *string `db:"USER_DEFINED_TYPE_SCHEMA"`
	UDTName           *string `db:"USER_DEFINED_TYPE_NAME"`
}

func (r parameterRow) output() bool {
	if r.Mode == nil {
		return false
	}
	m := strings.ToUpper(*r.Mode)
	return m == "OUT" || m == "INOUT"
}

// structured reports whether the parameter is table-valued.
func (r parameterRow) structured() bool {
	return strings.EqualFold(r.DataType, "table type") ||
		(r.UDTSchema != nil && r.UDTName != nil && !sqltype.Known(r.DataType))
}

// structuredName returns the bracketed table type name when
// INFORMATION_SCHEMA carries it.
func (r parameterRow) structuredName() (string, bool) {
	if r.UDTSchema == nil || r.UDTName == nil || *r.UDTName == "" {
		return "", false
	}
	return model.QualifiedName(*r.UDTSchema, *r.UDTName), true
}

func (r parameterRow) primitiveType() sqltype.Type {
	return infoSchemaType(r.DataType, r.MaxLength, r.Precision, r.Scale, r.DatetimePrecision)
}

type parameterTypeRow struct {
	Schema string `db:"type_schema"`
	Name   string `db:"type_name"`
}

// sysColumnRow holds one sys.columns row joined to its type.
type sysColumnRow struct {
	Name       string `db:"column_name"`
	DataType   string `db:"data_type"`
	MaxLength  int    `db:"max_length"`
	Precision  int    `db:"precision"`
	Scale      int    `db:"scale"`
	IsNullable bool   `db:"is_nullable"`
	ColumnID   int    `db:"column_id"`
}

func (r sysColumnRow) sqlType() sqltype.Type {
	return sysColumnType(r.DataType, r.MaxLength, r.Precision, r.Scale)
}

// tableTypeColumnRow is a sysColumnRow tagged with its owning table type.
type tableTypeColumnRow struct {
	Schema   string `db:"schema_name"`
	TypeName string `db:"type_name"`
	sysColumnRow
}

func (r tableTypeColumnRow) key() model.Key { return model.Key{Schema: r.Schema, Name: r.TypeName} }

// describeRow holds one row of sys.dm_exec_describe_first_result_set.
type describeRow struct {
	Ordinal        *int    `db:"column_ordinal"`
	Name           *string `db:"name"`
	IsNullable     *bool   `db:"is_nullable"`
	SystemTypeName *string `db:"system_type_name"`
	ErrorNumber    *int    `db:"error_number"`
	ErrorMessage   *string `db:"error_message"`
}

// viewColumnRow holds one row of INFORMATION_SCHEMA.COLUMNS.
type viewColumnRow struct {
	Name              string `db:"COLUMN_NAME"`
	DataType          string `db:"DATA_TYPE"`
	MaxLength         *int   `db:"CHARACTER_MAXIMUM_LENGTH"`
	Precision         *int   `db:"NUMERIC_PRECISION"`
	Scale             *int   `db:"NUMERIC_SCALE"`
	DatetimePrecision *int   `db:"DATETIME_PRECISION"`
	IsNullable        string `db:"IS_NULLABLE"`
	Ordinal           int    `db:"ORDINAL_POSITION"`
}

func (r viewColumnRow) sqlType() sqltype.Type {
	return infoSchemaType(r.DataType, r.MaxLength, r.Precision, r.Scale, r.DatetimePrecision)
}

// infoSchemaType resolves INFORMATION_SCHEMA facets. Temporal types keep
// their precision in DATETIME_PRECISION, not NUMERIC_PRECISION.
func infoSchemaType(dataType string, length, precision, scale, datetimePrecision *int) sqltype.Type {
	if sqltype.IsTemporal(dataType) {
		return sqltype.Resolve(dataType, nil, datetimePrecision, nil)
	}
	return sqltype.Resolve(dataType, length, precision, scale)
}

// sysColumnType resolves sys.columns facets. max_length counts bytes, so
// unicode lengths are halved; temporal precision lives in scale.
func sysColumnType(dataType string, maxLength, precision, scale int) sqltype.Type {
	if sqltype.IsTemporal(dataType) {
		return sqltype.Resolve(dataType, nil, &scale, nil)
	}
	length := maxLength
	if sqltype.IsUnicode(dataType) && length > 0 {
		length /= 2
	}
	return sqltype.Resolve(dataType, &length, &precision, &scale)
}
