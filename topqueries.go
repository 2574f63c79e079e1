package mssqlmcp

import (
	"context"
	"fmt"
)

const topQueriesByCPUSQL = `
SELECT TOP 10
  SUBSTRING(st.text, qs.statement_start_offset / 2,
        (CASE WHEN qs.statement_end_offset = -1
          THEN LEN(CONVERT(NVARCHAR(MAX), st.text)) * 2
          ELSE qs.statement_end_offset END - qs.statement_start_offset) / 2) AS query_text,
  qs.execution_count,
  qs.total_worker_time / qs.execution_count AS avg_cpu_time,
  qs.total_worker_time AS total_cpu_time
FROM sys.dm_exec_query_stats qs
CROSS APPLY sys.dm_exec_sql_text(qs.sql_handle) st
ORDER BY avg_cpu_time DESC;
`

const topQueriesByReadsSQL = `
SELECT TOP 10
  SUBSTRING(st.text, qs.statement_start_offset / 2,
        (CASE WHEN qs.statement_end_offset = -1
          THEN LEN(CONVERT(NVARCHAR(MAX), st.text)) * 2
          ELSE qs.statement_end_offset END - qs.statement_start_offset) / 2) AS query_text,
  qs.execution_count,
  qs.total_logical_reads / qs.execution_count AS avg_logical_reads,
  qs.total_logical_reads
FROM sys.dm_exec_query_stats qs
CROSS APPLY sys.dm_exec_sql_text(qs.sql_handle) st
ORDER BY avg_logical_reads DESC;
`

const topQueriesByTimeSQL = `
SELECT TOP 10
  SUBSTRING(st.text, qs.statement_start_offset / 2,
        (CASE WHEN qs.statement_end_offset = -1
          THEN LEN(CONVERT(NVARCHAR(MAX), st.text)) * 2
          ELSE qs.statement_end_offset END - qs.statement_start_offset) / 2) AS query_text,
  qs.execution_count,
  qs.total_elapsed_time / qs.execution_count AS avg_elapsed_time,
  qs.total_elapsed_time
FROM sys.dm_exec_query_stats qs
CROSS APPLY sys.dm_exec_sql_text(qs.sql_handle) st
ORDER BY avg_elapsed_time DESC;
`

// topQueriesTemplates maps a metric name to its template. The metric selects
// a compiled-in template; it never reaches SQL text itself.
var topQueriesTemplates = map[string]QueryTemplate{
	"cpu":   {Name: "top_queries_by_cpu", SQL: topQueriesByCPUSQL},
	"reads": {Name: "top_queries_by_reads", SQL: topQueriesByReadsSQL},
	"time":  {Name: "top_queries_by_time", SQL: topQueriesByTimeSQL},
}

// TopQueriesInput is the input for the top_queries tool.
type TopQueriesInput struct {
	Metric string `json:"metric"`
}

// TopQueries returns the top 10 queries by the given metric: "cpu" (average
// worker time), "reads" (average logical reads), or "time" (average elapsed
// time). An unknown metric yields a failure envelope with zero SQL executed.
func (m *SQLServerMcp) TopQueries(ctx context.Context, input TopQueriesInput) Envelope {
	tpl, ok := topQueriesTemplates[input.Metric]
	if !ok {
		return m.shapeFailure(EchoParams{},
			fmt.Sprintf("Failed to retrieve top queries by %q", input.Metric),
			fmt.Errorf("invalid metric %q: must be one of cpu, reads, time", input.Metric))
	}

	rows, err := m.execute(ctx, tpl, nil)
	if err != nil {
		return m.shapeFailure(EchoParams{}, "Failed to retrieve top queries by "+input.Metric, err)
	}
	return m.shapeSuccess(EchoParams{}, "Top 10 queries by "+input.Metric+" retrieved successfully", rows)
}
