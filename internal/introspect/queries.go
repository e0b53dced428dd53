package introspect

// Every list query orders by (schema, name) and every member query by
// position. The grouping and ordering checks depend on it: do not drop an
// ORDER BY clause.

// columnTypeName yields the base system type for alias types and the
// type's own name for everything else (including CLR types such as
// geography, which share a system_type_id).
const columnTypeName = `CASE WHEN t.is_user_defined = 1 AND t.is_assembly_type = 0 AND t.is_table_type = 0
			THEN TYPE_NAME(t.system_type_id) ELSE t.name END`

const tableTypeColumnsQuery = `SELECT
			s.name AS schema_name,
			tt.name AS type_name,
			c.name AS column_name,
			` + columnTypeName + ` AS data_type,
			c.max_length,
			c.precision,
			c.scale,
			c.is_nullable,
			c.column_id
		FROM sys.table_types tt
		JOIN sys.schemas s ON s.schema_id = tt.schema_id
		JOIN sys.columns c ON c.object_id = tt.type_table_object_id
		JOIN sys.types t ON t.user_type_id = c.user_type_id
		ORDER BY s.name, tt.name, c.column_id`

const structuredTypeColumnsQuery = `SELECT
			c.name AS column_name,
			` + columnTypeName + ` AS data_type,
			c.max_length,
			c.precision,
			c.scale,
			c.is_nullable,
			c.column_id
		FROM sys.table_types tt
		JOIN sys.schemas s ON s.schema_id = tt.schema_id
		JOIN sys.columns c ON c.object_id = tt.type_table_object_id
		JOIN sys.types t ON t.user_type_id = c.user_type_id
		WHERE s.name = @p1 AND tt.name = @p2
		ORDER BY c.column_id`

const proceduresQuery = `SELECT SPECIFIC_SCHEMA, SPECIFIC_NAME
		FROM INFORMATION_SCHEMA.ROUTINES
		WHERE ROUTINE_TYPE = 'PROCEDURE'
		ORDER BY SPECIFIC_SCHEMA, SPECIFIC_NAME`

const functionsQuery = `SELECT
			SPECIFIC_SCHEMA,
			SPECIFIC_NAME,
			DATA_TYPE,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			DATETIME_PRECISION
		FROM INFORMATION_SCHEMA.ROUTINES
		WHERE ROUTINE_TYPE = 'FUNCTION'
		ORDER BY SPECIFIC_SCHEMA, SPECIFIC_NAME`

// The scalar return value of a function is listed as a nameless
// parameter with IS_RESULT = 'YES'.
const parametersQuery = `SELECT
			PARAMETER_NAME,
			ORDINAL_POSITION,
			DATA_TYPE,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			DATETIME_PRECISION,
			PARAMETER_MODE,
			USER_DEFINED_TYPE_SCHEMA,
			USER_DEFINED_TYPE_NAME
		FROM INFORMATION_SCHEMA.PARAMETERS
		WHERE SPECIFIC_SCHEMA = @p1 AND SPECIFIC_NAME = @p2 AND IS_RESULT = 'NO'
		ORDER BY ORDINAL_POSITION`

// parameterTableTypeQuery recovers the table type behind a parameter when
// INFORMATION_SCHEMA.PARAMETERS leaves USER_DEFINED_TYPE_* empty.
const parameterTableTypeQuery = `SELECT ts.name AS type_schema, t.name AS type_name
		FROM sys.parameters p
		JOIN sys.types t ON t.user_type_id = p.user_type_id
		JOIN sys.schemas ts ON ts.schema_id = t.schema_id
		WHERE p.object_id = OBJECT_ID(@p1) AND p.name = @p2 AND t.is_table_type = 1`

// describeFirstResultSetQuery asks the engine to describe, without
// executing, the first result set of @p1. Errors are reported as rows
// carrying error_number rather than raised.
const describeFirstResultSetQuery = `SELECT
			column_ordinal,
			name,
			is_nullable,
			system_type_name,
			error_number,
			error_message
		FROM sys.dm_exec_describe_first_result_set(@p1, NULL, 0)
		WHERE ISNULL(is_hidden, 0) = 0
		ORDER BY column_ordinal`

const objectColumnsQuery = `SELECT
			c.name AS column_name,
			` + columnTypeName + ` AS data_type,
			c.max_length,
			c.precision,
			c.scale,
			c.is_nullable,
			c.column_id
		FROM sys.columns c
		JOIN sys.types t ON t.user_type_id = c.user_type_id
		WHERE c.object_id = OBJECT_ID(@p1)
		ORDER BY c.column_id`

const viewsQuery = `SELECT TABLE_SCHEMA, TABLE_NAME
		FROM INFORMATION_SCHEMA.VIEWS
		ORDER BY TABLE_SCHEMA, TABLE_NAME`

const viewColumnsQuery = `SELECT
			COLUMN_NAME,
			DATA_TYPE,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			DATETIME_PRECISION,
			IS_NULLABLE,
			ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`
