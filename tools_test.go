package mssqlmcp_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mssqlmcp "github.com/schcrwlr/sqlserver-mcp"
)

// newTestEngine builds an engine over a lazy handle pointing at a closed
// port. Tool calls that fail before connection acquisition (identifier
// rejection, invalid metric) exercise the envelope path without a server.
func newTestEngine(t *testing.T, config mssqlmcp.Config) *mssqlmcp.SQLServerMcp {
	t.Helper()
	engine, err := mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { engine.Close(context.Background()) })
	return engine
}

func TestColumnStatisticsRejectsInjectionIdentifier(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, validConfig())

	env := engine.ColumnStatistics(context.Background(), mssqlmcp.ColumnStatisticsInput{
		DatabaseName: "TestDB",
		SchemaName:   "dbo",
		TableName:    "Users; DROP TABLE x",
	})

	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if !strings.Contains(env.Error, "invalid identifier") {
		t.Errorf("expected identifier rejection, got %q", env.Error)
	}
	// Rejection must happen before any connection is touched: the unreachable
	// test host would produce a connection error instead.
	if strings.Contains(env.Error, "connection") {
		t.Errorf("identifier rejection reached the connection layer: %q", env.Error)
	}
	if env.ColumnCount != 0 || len(env.Data) != 0 {
		t.Errorf("failure envelope must carry no data: %+v", env)
	}
	if env.TableName != "Users; DROP TABLE x" || env.SchemaName != "dbo" || env.DatabaseName != "TestDB" {
		t.Errorf("failure envelope must echo inputs: %+v", env)
	}
}

func TestTopQueriesInvalidMetric(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, validConfig())

	env := engine.TopQueries(context.Background(), mssqlmcp.TopQueriesInput{Metric: "disk"})

	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if !strings.Contains(env.Error, "invalid metric") {
		t.Errorf("expected invalid metric error, got %q", env.Error)
	}
}

func TestFailureEnvelopeAppendsErrorPrompt(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.ErrorPrompts = []mssqlmcp.ErrorPromptRule{
		{Pattern: "invalid metric", Message: "Use one of: cpu, reads, time."},
	}
	engine := newTestEngine(t, config)

	env := engine.TopQueries(context.Background(), mssqlmcp.TopQueriesInput{Metric: "disk"})

	if !strings.Contains(env.Error, "Use one of: cpu, reads, time.") {
		t.Errorf("expected error prompt guidance appended, got %q", env.Error)
	}
}

// TestEnvelopeWireShape pins the JSON contract: all fixed field names are
// always present, and data is an empty array (not null) on failure.
func TestEnvelopeWireShape(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, validConfig())

	env := engine.ColumnStatistics(context.Background(), mssqlmcp.ColumnStatisticsInput{
		DatabaseName: "TestDB",
		SchemaName:   "dbo",
		TableName:    "bad name",
	})

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, field := range []string{
		"success", "message", "database_name", "schema_name",
		"table_name", "column_count", "data", "error",
	} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("envelope missing field %q: %s", field, b)
		}
	}
	if string(decoded["data"]) != "[]" {
		t.Errorf("failure envelope data must be an empty array, got %s", decoded["data"])
	}
	if string(decoded["success"]) != "false" {
		t.Errorf("expected success=false, got %s", decoded["success"])
	}
}

// TestValidateUnreachableHost checks the startup probe downgrade: an
// unreachable server yields false plus a diagnostic, never an error.
func TestValidateUnreachableHost(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.Query.DefaultTimeoutSeconds = 2
	engine := newTestEngine(t, config)

	ok, diag := engine.Validate(context.Background())
	if ok {
		t.Fatal("expected validation failure against unreachable host")
	}
	if diag == "" {
		t.Error("expected a diagnostic string")
	}
}
