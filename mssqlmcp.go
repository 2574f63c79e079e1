package mssqlmcp

import (
	"context"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // registers the "sqlserver" driver
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/schcrwlr/sqlserver-mcp/internal/errprompt"
	"github.com/schcrwlr/sqlserver-mcp/internal/sanitize"
	"github.com/schcrwlr/sqlserver-mcp/internal/timeout"
)

// SQLServerMcp is the core engine behind the performance-analysis tools.
// All exported methods are safe for concurrent use from multiple goroutines:
// every tool call runs on its own scoped connection and builds its own
// envelope, with no shared mutable state.
type SQLServerMcp struct {
	config     Config
	connCfg    ConnConfig
	db         *sqlx.DB
	sanitizer  *sanitize.Sanitizer
	errPrompts *errprompt.Matcher
	timeoutMgr *timeout.Manager
	logger     zerolog.Logger
}

// New creates a new SQLServerMcp instance. connCfg must come from
// ResolveConnConfig. Panics on invalid config (misconfiguration is a
// programming/deployment error, not a runtime condition). Returns an error
// only for runtime failures such as opening the database handle; note the
// handle is lazy; connectivity is checked by Validate.
func New(ctx context.Context, connCfg ConnConfig, config Config, logger zerolog.Logger) (*SQLServerMcp, error) {
	if config.Query.DefaultTimeoutSeconds <= 0 {
		panic("mssqlmcp: query.default_timeout_seconds must be > 0")
	}
	if config.Pool.MaxOpenConns <= 0 {
		panic("mssqlmcp: pool.max_open_conns must be > 0")
	}
	if config.Pool.MaxIdleConns < 0 {
		panic("mssqlmcp: pool.max_idle_conns must be >= 0")
	}
	for _, rule := range config.Query.TimeoutRules {
		if rule.TimeoutSeconds <= 0 {
			panic(fmt.Sprintf("mssqlmcp: timeout_rule with pattern %q has timeout_seconds <= 0", rule.Pattern))
		}
	}

	san, err := sanitize.NewSanitizer(mapSanitizationRules(config.Sanitization))
	if err != nil {
		panic(fmt.Sprintf("mssqlmcp: %v", err))
	}
	matcher, err := errprompt.NewMatcher(mapErrorPromptRules(config.ErrorPrompts))
	if err != nil {
		panic(fmt.Sprintf("mssqlmcp: %v", err))
	}

	timeoutRules := make([]timeout.Rule, len(config.Query.TimeoutRules))
	for i, r := range config.Query.TimeoutRules {
		timeoutRules[i] = timeout.Rule{
			Pattern: r.Pattern,
			Timeout: time.Duration(r.TimeoutSeconds) * time.Second,
		}
	}
	tmgr, err := timeout.NewManager(timeout.Config{
		DefaultTimeout: time.Duration(config.Query.DefaultTimeoutSeconds) * time.Second,
		Rules:          timeoutRules,
	})
	if err != nil {
		panic(fmt.Sprintf("mssqlmcp: %v", err))
	}

	db, err := sqlx.Open("sqlserver", connCfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	db.SetMaxOpenConns(config.Pool.MaxOpenConns)
	db.SetMaxIdleConns(config.Pool.MaxIdleConns)
	if config.Pool.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(config.Pool.ConnMaxLifetime)
		if err != nil {
			panic(fmt.Sprintf("mssqlmcp: invalid pool.conn_max_lifetime %q: %v", config.Pool.ConnMaxLifetime, err))
		}
		db.SetConnMaxLifetime(d)
	}

	return &SQLServerMcp{
		config:     config,
		connCfg:    connCfg,
		db:         db,
		sanitizer:  san,
		errPrompts: matcher,
		timeoutMgr: tmgr,
		logger:     logger,
	}, nil
}

// validateSQL is the startup liveness probe.
const validateSQL = "SELECT 1"

// Validate probes connectivity by opening a scoped connection and running a
// trivial query. It never returns an error: driver failures downgrade to
// false plus a diagnostic string for the caller to log. This is the sole
// place a ConnectionError becomes a boolean; the CLI gates serving on it.
func (m *SQLServerMcp) Validate(ctx context.Context) (bool, string) {
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(m.config.Query.DefaultTimeoutSeconds)*time.Second)
	defer cancel()

	conn, err := m.acquire(probeCtx)
	if err != nil {
		return false, err.Error()
	}
	defer conn.Close()

	var one int
	if err := conn.GetContext(probeCtx, &one, validateSQL); err != nil {
		return false, fmt.Sprintf("liveness query failed against %s: %v", m.connCfg.Redacted(), err)
	}
	if one != 1 {
		return false, fmt.Sprintf("liveness query returned %d, expected 1", one)
	}
	return true, ""
}

// acquire checks out one scoped connection from the pool. Callers must
// Close() it on every exit path. Failures surface as *ConnectionError.
func (m *SQLServerMcp) acquire(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := m.db.Connx(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "acquire", Err: err}
	}
	return conn, nil
}

// Close releases the connection pool. Accepts context for API
// forward-compatibility; database/sql close does not support cancellation.
func (m *SQLServerMcp) Close(ctx context.Context) {
	if err := m.db.Close(); err != nil {
		m.logger.Warn().Err(err).Msg("error closing database handle")
	}
}

// mapSanitizationRules converts config rules to internal sanitize rules.
func mapSanitizationRules(rules []SanitizationRule) []sanitize.Rule {
	result := make([]sanitize.Rule, len(rules))
	for i, r := range rules {
		result[i] = sanitize.Rule{
			Pattern:     r.Pattern,
			Replacement: r.Replacement,
		}
	}
	return result
}

// mapErrorPromptRules converts config rules to internal errprompt rules.
func mapErrorPromptRules(rules []ErrorPromptRule) []errprompt.Rule {
	result := make([]errprompt.Rule, len(rules))
	for i, r := range rules {
		result[i] = errprompt.Rule{
			Pattern: r.Pattern,
			Message: r.Message,
		}
	}
	return result
}
