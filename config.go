package mssqlmcp

// Config is the engine configuration used by New(). Connection parameters are
// deliberately not part of it; they come from the resolved ConnConfig.
type Config struct {
	Pool         PoolConfig         `json:"pool"`
	Query        QueryConfig        `json:"query"`
	ErrorPrompts []ErrorPromptRule  `json:"error_prompts"`
	Sanitization []SanitizationRule `json:"sanitization"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Server  ServerSettings `json:"server"`
	Logging LoggingConfig  `json:"logging"`
}

// PoolConfig holds database/sql pool settings. No in-process pooling happens
// beyond this; each tool call runs on one scoped connection.
type PoolConfig struct {
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime string `json:"conn_max_lifetime"`
}

// QueryConfig holds query execution settings. Timeouts are explicit here
// rather than inherited silently from the driver.
type QueryConfig struct {
	DefaultTimeoutSeconds int           `json:"default_timeout_seconds"`
	TimeoutRules          []TimeoutRule `json:"timeout_rules"`
}

// TimeoutRule maps a SQL pattern to a specific timeout duration.
// First matching rule wins.
type TimeoutRule struct {
	Pattern        string `json:"pattern"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// ErrorPromptRule maps a SQL Server error message pattern to a guidance
// message appended to failure envelopes.
type ErrorPromptRule struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

// SanitizationRule defines a regex-based masking rule applied to string
// values in result rows. Query text returned by plan-cache and DMV tools can
// embed literals from user data.
type SanitizationRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}

// ServerSettings holds HTTP server settings for CLI mode.
type ServerSettings struct {
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stderr, stdout, or file path
}

// DefaultServerConfig returns the configuration used when no config file is
// present.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Config: Config{
			Pool: PoolConfig{
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: "5m",
			},
			Query: QueryConfig{
				DefaultTimeoutSeconds: 30,
			},
			ErrorPrompts: []ErrorPromptRule{
				{
					Pattern: `(?i)VIEW SERVER STATE`,
					Message: "The login needs VIEW SERVER STATE permission to read performance DMVs: GRANT VIEW SERVER STATE TO [login].",
				},
				{
					Pattern: `(?i)login failed`,
					Message: "Check SCHCRWLR_DATABASE_USER and SCHCRWLR_DATABASE_PASSWORD, and that SQL Server authentication is enabled on the instance.",
				},
			},
		},
		Server: ServerSettings{
			Port:               8080,
			HealthCheckEnabled: true,
			HealthCheckPath:    "/healthz",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}
