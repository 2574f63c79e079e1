package mssqlmcp_test

import (
	"context"
	"os"
	"strings"
	"testing"

	mssqlmcp "github.com/schcrwlr/sqlserver-mcp"
	"github.com/rs/zerolog"
)

// testConnConfig returns a descriptor pointing at a closed local port,
// enough to open a lazy database handle without a server.
func testConnConfig() mssqlmcp.ConnConfig {
	return mssqlmcp.ConnConfig{
		Mode:                   mssqlmcp.ModeDiscrete,
		Host:                   "127.0.0.1",
		Port:                   1,
		Database:               "TestDB",
		User:                   "u",
		Password:               "p",
		TrustServerCertificate: true,
	}
}

// testLogger returns a disabled zerolog logger for config tests.
func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

// validConfig returns a minimal valid Config for testing.
func validConfig() mssqlmcp.Config {
	return mssqlmcp.Config{
		Pool:  mssqlmcp.PoolConfig{MaxOpenConns: 5},
		Query: mssqlmcp.QueryConfig{DefaultTimeoutSeconds: 30},
	}
}

// expectPanic calls f and asserts that it panics with a message containing
// substr.
func expectPanic(t *testing.T, substr string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, but no panic occurred", substr)
		}
		msg := ""
		switch v := r.(type) {
		case string:
			msg = v
		case error:
			msg = v.Error()
		default:
			t.Fatalf("expected panic string/error containing %q, got %T: %v", substr, r, r)
		}
		if !strings.Contains(msg, substr) {
			t.Fatalf("expected panic containing %q, got %q", substr, msg)
		}
	}()
	f()
}

func TestNewValidConfig(t *testing.T) {
	t.Parallel()
	engine, err := mssqlmcp.New(context.Background(), testConnConfig(), validConfig(), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine.Close(context.Background())
}

func TestNewValidationZeroDefaultTimeout(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.Query.DefaultTimeoutSeconds = 0

	expectPanic(t, "default_timeout_seconds", func() {
		mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	})
}

func TestNewValidationZeroMaxOpenConns(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.Pool.MaxOpenConns = 0

	expectPanic(t, "pool.max_open_conns", func() {
		mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	})
}

func TestNewValidationNegativeMaxIdleConns(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.Pool.MaxIdleConns = -1

	expectPanic(t, "pool.max_idle_conns", func() {
		mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	})
}

func TestNewValidationBadTimeoutRule(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.Query.TimeoutRules = []mssqlmcp.TimeoutRule{
		{Pattern: "dm_exec", TimeoutSeconds: 0},
	}

	expectPanic(t, "timeout_rule", func() {
		mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	})
}

func TestNewValidationInvalidSanitizationRegex(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.Sanitization = []mssqlmcp.SanitizationRule{
		{Pattern: "[invalid(regex", Replacement: "***"},
	}

	expectPanic(t, "regex", func() {
		mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	})
}

func TestNewValidationInvalidErrorPromptRegex(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.ErrorPrompts = []mssqlmcp.ErrorPromptRule{
		{Pattern: "[invalid(regex", Message: "x"},
	}

	expectPanic(t, "regex", func() {
		mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	})
}

func TestNewValidationInvalidConnMaxLifetime(t *testing.T) {
	t.Parallel()
	config := validConfig()
	config.Pool.ConnMaxLifetime = "five minutes"

	expectPanic(t, "conn_max_lifetime", func() {
		mssqlmcp.New(context.Background(), testConnConfig(), config, testLogger())
	})
}

func TestDefaultServerConfigIsValid(t *testing.T) {
	t.Parallel()
	serverConfig := mssqlmcp.DefaultServerConfig()
	engine, err := mssqlmcp.New(context.Background(), testConnConfig(), serverConfig.Config, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine.Close(context.Background())

	if serverConfig.Server.Port <= 0 {
		t.Error("default server port must be > 0")
	}
}
