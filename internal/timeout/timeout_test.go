package timeout

import (
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules: []Rule{
			{Pattern: "dm_exec_query_stats", Timeout: 5 * time.Second},
			{Pattern: "COUNT", Timeout: 60 * time.Second},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestMatchFirstRule(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	got, pattern := m.Resolve("SELECT TOP 10 * FROM sys.dm_exec_query_stats")
	if got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
	if pattern != "dm_exec_query_stats" {
		t.Errorf("expected matched pattern, got %q", pattern)
	}
}

func TestStopOnFirstMatch(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	got, _ := m.Resolve("SELECT COUNT(*) FROM sys.dm_exec_query_stats")
	if got != 5*time.Second {
		t.Errorf("expected 5s (first match wins), got %v", got)
	}
}

func TestDefaultTimeout(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	got, pattern := m.Resolve("SELECT 1")
	if got != 30*time.Second {
		t.Errorf("expected default 30s, got %v", got)
	}
	if pattern != "" {
		t.Errorf("expected empty pattern for default, got %q", pattern)
	}
}

func TestInvalidRegex(t *testing.T) {
	t.Parallel()
	_, err := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules:          []Rule{{Pattern: "[invalid(regex", Timeout: time.Second}},
	})
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
	if !strings.Contains(err.Error(), "invalid regex") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestNoRules(t *testing.T) {
	t.Parallel()
	m, err := NewManager(Config{DefaultTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := m.Resolve("anything at all")
	if got != 10*time.Second {
		t.Errorf("expected 10s, got %v", got)
	}
}
