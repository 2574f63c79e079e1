package mssqlmcp

import (
	"context"
	"fmt"
)

// columnStatisticsSQL reports per-column metadata plus the table row count.
// The three-part table name must appear positionally, so database_name,
// schema_name, and table_name are identifier slots; the same values feed the
// INFORMATION_SCHEMA filter through ordinary parameter binding.
const columnStatisticsSQL = `
WITH TableStats AS (
    SELECT COUNT(*) AS total_rows
    FROM [{{database_name}}].[{{schema_name}}].[{{table_name}}]
),
ColumnInfo AS (
    SELECT
        @database_name AS database_name,
        @schema_name AS schema_name,
        @table_name AS table_name,
        c.COLUMN_NAME,
        c.DATA_TYPE,
        c.IS_NULLABLE,
        c.CHARACTER_MAXIMUM_LENGTH,
        c.NUMERIC_PRECISION,
        c.NUMERIC_SCALE,
        c.ORDINAL_POSITION
    FROM [{{database_name}}].INFORMATION_SCHEMA.COLUMNS c
    WHERE c.TABLE_CATALOG = @database_name
      AND c.TABLE_SCHEMA = @schema_name
      AND c.TABLE_NAME = @table_name
)
SELECT
    ci.*,
    ts.total_rows AS total_count
FROM ColumnInfo ci
CROSS JOIN TableStats ts
ORDER BY ci.ORDINAL_POSITION
`

var columnStatisticsTemplate = QueryTemplate{
	Name: "column_statistics",
	SQL:  columnStatisticsSQL,
	Params: []ParamSpec{
		{Name: "database_name", Kind: ParamIdentifier},
		{Name: "schema_name", Kind: ParamIdentifier},
		{Name: "table_name", Kind: ParamIdentifier},
	},
}

// ColumnStatisticsInput is the input for the column_statistics tool.
type ColumnStatisticsInput struct {
	DatabaseName string `json:"database_name"`
	SchemaName   string `json:"schema_name"`
	TableName    string `json:"table_name"`
}

// ColumnStatistics returns column metadata and the total row count for one
// table. Each result row is one column of the table, so the envelope's
// column_count equals the table's column count and every row carries the
// same total_count.
func (m *SQLServerMcp) ColumnStatistics(ctx context.Context, input ColumnStatisticsInput) Envelope {
	echo := EchoParams{
		DatabaseName: input.DatabaseName,
		SchemaName:   input.SchemaName,
		TableName:    input.TableName,
	}
	qualified := fmt.Sprintf("%s.%s.%s", input.DatabaseName, input.SchemaName, input.TableName)

	rows, err := m.execute(ctx, columnStatisticsTemplate, map[string]string{
		"database_name": input.DatabaseName,
		"schema_name":   input.SchemaName,
		"table_name":    input.TableName,
	})
	if err != nil {
		return m.shapeFailure(echo, "Failed to retrieve column statistics for "+qualified, err)
	}
	return m.shapeSuccess(echo, "Column statistics retrieved successfully for "+qualified, rows)
}
