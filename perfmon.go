package mssqlmcp

import "context"

// Performance monitoring tools over SQL Server dynamic management views.
// All of these require VIEW SERVER STATE on the login; the default error
// prompts translate the permission error into that hint.

const monitorBlockingSQL = `
SELECT
  t.text AS query_text,
  r.session_id AS blocked_session,
  r.blocking_session_id AS blocker_session,
  r.status,
  r.wait_type,
  r.wait_time,
  r.cpu_time,
  r.total_elapsed_time
FROM sys.dm_exec_requests r
JOIN sys.dm_exec_sessions s ON r.session_id = s.session_id
CROSS APPLY sys.dm_exec_sql_text(r.sql_handle) t
WHERE r.blocking_session_id <> 0;
`

const cachedPlansSQL = `
SELECT TOP 100
  st.text AS query_text,
  cp.usecounts,
  cp.cacheobjtype,
  cp.objtype,
  cp.size_in_bytes / 1024 AS size_kb
FROM sys.dm_exec_cached_plans cp
CROSS APPLY sys.dm_exec_sql_text(cp.plan_handle) st
WHERE cp.cacheobjtype = 'Compiled Plan'
ORDER BY cp.usecounts DESC;
`

const planCacheBloatSQL = `
SELECT
  st.text AS query_text,
  cp.usecounts,
  cp.size_in_bytes / 1024 AS size_kb,
  cp.objtype
FROM sys.dm_exec_cached_plans cp
CROSS APPLY sys.dm_exec_sql_text(cp.plan_handle) st
WHERE cp.objtype = 'Adhoc'
  AND cp.usecounts = 1
ORDER BY cp.size_in_bytes DESC;
`

const lockContentionSQL = `
SELECT
  t.text AS query_text,
  tl.resource_type,
  tl.resource_database_id,
  tl.resource_associated_entity_id,
  tl.request_mode,
  tl.request_status,
  s.session_id,
  s.login_name
FROM sys.dm_tran_locks tl
JOIN sys.dm_exec_sessions s ON tl.request_session_id = s.session_id
JOIN sys.dm_exec_requests r ON s.session_id = r.session_id
CROSS APPLY sys.dm_exec_sql_text(r.sql_handle) t;
`

const waitStatisticsSQL = `
SELECT TOP 20
    wait_type,
    wait_time_ms / 1000.0 AS wait_time_sec,
    waiting_tasks_count,
    wait_time_ms / (1000 * waiting_tasks_count) AS avg_wait_time_sec
FROM sys.dm_os_wait_stats
WHERE wait_type NOT LIKE '%SLEEP%'
AND waiting_tasks_count > 0
ORDER BY wait_time_ms DESC;
`

var (
	monitorBlockingTemplate = QueryTemplate{Name: "monitor_blocking", SQL: monitorBlockingSQL}
	cachedPlansTemplate     = QueryTemplate{Name: "cached_plans", SQL: cachedPlansSQL}
	planCacheBloatTemplate  = QueryTemplate{Name: "plan_cache_bloat", SQL: planCacheBloatSQL}
	lockContentionTemplate  = QueryTemplate{Name: "lock_contention", SQL: lockContentionSQL}
	waitStatisticsTemplate  = QueryTemplate{Name: "wait_statistics", SQL: waitStatisticsSQL}
)

// MonitorBlocking returns currently executing requests that are blocked by
// another session, with the blocked/blocker session ids and wait details.
func (m *SQLServerMcp) MonitorBlocking(ctx context.Context) Envelope {
	return m.runMonitorTemplate(ctx, monitorBlockingTemplate,
		"Live activity and blocking information retrieved successfully",
		"Failed to retrieve live activity and blocking information")
}

// CachedPlans returns the 100 most reused compiled plans in the plan cache.
func (m *SQLServerMcp) CachedPlans(ctx context.Context) Envelope {
	return m.runMonitorTemplate(ctx, cachedPlansTemplate,
		"Cached plans with reuse information retrieved successfully",
		"Failed to retrieve cached plans with reuse information")
}

// PlanCacheBloat returns single-use adhoc plans ordered by size; memory
// spent on plans that will never be reused.
func (m *SQLServerMcp) PlanCacheBloat(ctx context.Context) Envelope {
	return m.runMonitorTemplate(ctx, planCacheBloatTemplate,
		"Plan cache bloat information retrieved successfully",
		"Failed to retrieve plan cache bloat information")
}

// LockContention returns currently held and requested locks joined to the
// owning sessions and their SQL text.
func (m *SQLServerMcp) LockContention(ctx context.Context) Envelope {
	return m.runMonitorTemplate(ctx, lockContentionTemplate,
		"Lock contention information retrieved successfully",
		"Failed to retrieve lock contention information")
}

// WaitStatistics returns the top 20 cumulative wait types, excluding
// sleep-class waits.
func (m *SQLServerMcp) WaitStatistics(ctx context.Context) Envelope {
	return m.runMonitorTemplate(ctx, waitStatisticsTemplate,
		"Wait statistics retrieved successfully",
		"Failed to retrieve wait statistics")
}

// runMonitorTemplate executes a parameterless monitoring template and shapes
// the envelope.
func (m *SQLServerMcp) runMonitorTemplate(ctx context.Context, tpl QueryTemplate, successMsg, failureMsg string) Envelope {
	rows, err := m.execute(ctx, tpl, nil)
	if err != nil {
		return m.shapeFailure(EchoParams{}, failureMsg, err)
	}
	return m.shapeSuccess(EchoParams{}, successMsg, rows)
}
