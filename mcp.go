package mssqlmcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers all performance-analysis tools on the given MCP
// server. Every tool returns the uniform JSON envelope as text; handlers
// never return a Go error for per-call failures; the envelope's success
// flag is the contract.
func RegisterMCPTools(mcpServer *server.MCPServer, engine *SQLServerMcp) {
	columnStatisticsTool := mcp.NewTool("column_statistics",
		mcp.WithDescription("Get column metadata and total row count for a table. Returns one row per column with name, data type, nullability, precision, and ordinal position."),
		mcp.WithString("database_name",
			mcp.Required(),
			mcp.Description("The database name"),
		),
		mcp.WithString("schema_name",
			mcp.Required(),
			mcp.Description("The schema name"),
		),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("The table name"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(columnStatisticsTool, engine.loggedToolHandler("column_statistics", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		database, err := req.RequireString("database_name")
		if err != nil {
			return mcp.NewToolResultError("database_name parameter is required"), nil
		}
		schema, err := req.RequireString("schema_name")
		if err != nil {
			return mcp.NewToolResultError("schema_name parameter is required"), nil
		}
		table, err := req.RequireString("table_name")
		if err != nil {
			return mcp.NewToolResultError("table_name parameter is required"), nil
		}
		return envelopeResult(engine.ColumnStatistics(ctx, ColumnStatisticsInput{
			DatabaseName: database,
			SchemaName:   schema,
			TableName:    table,
		}))
	}))

	topQueriesTool := mcp.NewTool("top_queries",
		mcp.WithDescription("Get the top 10 SQL queries by a performance metric: cpu (average worker time), reads (average logical reads), or time (average elapsed time)."),
		mcp.WithString("metric",
			mcp.Description("The performance metric to order by: cpu, reads, or time (defaults to cpu)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(topQueriesTool, engine.loggedToolHandler("top_queries", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metric := req.GetString("metric", "cpu")
		return envelopeResult(engine.TopQueries(ctx, TopQueriesInput{Metric: metric}))
	}))

	registerParamless := func(name, description string, call func(context.Context) Envelope) {
		tool := mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithReadOnlyHintAnnotation(true),
		)
		mcpServer.AddTool(tool, engine.loggedToolHandler(name, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return envelopeResult(call(ctx))
		}))
	}

	registerParamless("server_version",
		"Connect to the database and return the SQL Server product name and version.",
		engine.ServerVersion)
	registerParamless("monitor_blocking",
		"Identify currently executing requests that are blocked by another session, with blocked/blocker session ids, SQL text, and wait details.",
		engine.MonitorBlocking)
	registerParamless("cached_plans",
		"Examine the top 100 most frequently reused compiled query plans in the plan cache.",
		engine.CachedPlans)
	registerParamless("plan_cache_bloat",
		"Identify single-use ad hoc plans occupying plan cache memory, ordered by size.",
		engine.PlanCacheBloat)
	registerParamless("lock_contention",
		"List currently held and requested locks joined to the owning sessions and their SQL text.",
		engine.LockContention)
	registerParamless("wait_statistics",
		"Return the top 20 cumulative wait types, excluding sleep-class waits.",
		engine.WaitStatistics)
}

// envelopeResult serializes an Envelope into an MCP text result.
func envelopeResult(env Envelope) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(env)
	if err != nil {
		return mcp.NewToolResultError("failed to marshal tool result"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// loggedToolHandler wraps a tool handler with a per-call request id and
// request/response size logging.
func (m *SQLServerMcp) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		startTime := time.Now()
		result, err := handler(ctx, req)
		m.logger.Info().
			Str("tool", tool).
			Str("request_id", requestID).
			Dur("duration", time.Since(startTime)).
			Int("request_bytes", requestLength(req)).
			Int("response_bytes", resultLength(result)).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request
// arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a
// CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
