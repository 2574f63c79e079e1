package mssqlmcp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Environment variable names forming the connection contract.
const (
	EnvJDBCURL   = "SCHCRWLR_JDBC_URL"
	EnvServer    = "SCHCRWLR_SERVER"
	EnvHost      = "SCHCRWLR_HOST"
	EnvPort      = "SCHCRWLR_PORT"
	EnvDatabase  = "SCHCRWLR_DATABASE"
	EnvUser      = "SCHCRWLR_DATABASE_USER"
	EnvPassword  = "SCHCRWLR_DATABASE_PASSWORD"
	EnvTrustCert = "SCHCRWLR_TRUST_SERVER_CERTIFICATE"
)

// defaultPort is the SQL Server default TCP port, used when neither the JDBC
// URL nor SCHCRWLR_PORT specifies one.
const defaultPort = 1433

// ConnMode identifies which of the two mutually exclusive configuration
// paths produced a ConnConfig.
type ConnMode int

const (
	// ModeJDBCURL means the config was parsed from SCHCRWLR_JDBC_URL.
	ModeJDBCURL ConnMode = iota + 1
	// ModeDiscrete means the config was assembled from individual
	// SCHCRWLR_* variables.
	ModeDiscrete
)

// ConnConfig is the resolved, immutable connection descriptor. It is built
// exactly once at process start by ResolveConnConfig and passed explicitly
// to every component that needs it; components never read the environment
// themselves.
type ConnConfig struct {
	Mode     ConnMode
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// Properties holds extra key=value pairs carried on the JDBC URL.
	Properties map[string]string

	// TrustServerCertificate controls whether self-signed certificates are
	// accepted. Transport encryption itself is always on.
	TrustServerCertificate bool
}

// LookupEnv is the environment access function ResolveConnConfig reads from,
// shaped like os.LookupEnv so tests never mutate process state.
type LookupEnv func(key string) (string, bool)

// ResolveConnConfig resolves the connection descriptor from environment
// variables. Exactly one configuration path must be fully present: either
// SCHCRWLR_JDBC_URL, or the discrete SCHCRWLR_SERVER/HOST/DATABASE set.
// Credentials (SCHCRWLR_DATABASE_USER, SCHCRWLR_DATABASE_PASSWORD) are
// required in both modes. Any ambiguity or gap returns a *ConfigurationError
// naming the offending variables.
func ResolveConnConfig(lookup LookupEnv) (ConnConfig, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	user := get(EnvUser)
	password := get(EnvPassword)
	var missingCreds []string
	if user == "" {
		missingCreds = append(missingCreds, EnvUser)
	}
	if password == "" {
		missingCreds = append(missingCreds, EnvPassword)
	}
	if len(missingCreds) > 0 {
		return ConnConfig{}, &ConfigurationError{
			Msg: "database credentials are required: missing " + strings.Join(missingCreds, ", "),
		}
	}

	trustCert := true
	if raw := get(EnvTrustCert); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ConnConfig{}, &ConfigurationError{
				Msg: fmt.Sprintf("%s must be a boolean, got %q", EnvTrustCert, raw),
			}
		}
		trustCert = parsed
	}

	jdbcURL := get(EnvJDBCURL)
	discrete := discreteVarsPresent(get)

	switch {
	case jdbcURL != "" && len(discrete) > 0:
		return ConnConfig{}, &ConfigurationError{
			Msg: fmt.Sprintf("%s conflicts with discrete connection variables (%s): set exactly one configuration mode",
				EnvJDBCURL, strings.Join(discrete, ", ")),
		}
	case jdbcURL != "":
		cfg, err := parseJDBCURL(jdbcURL)
		if err != nil {
			return ConnConfig{}, err
		}
		cfg.User = user
		cfg.Password = password
		cfg.TrustServerCertificate = trustCert
		return cfg, nil
	default:
		cfg, err := resolveDiscrete(get)
		if err != nil {
			return ConnConfig{}, err
		}
		cfg.User = user
		cfg.Password = password
		cfg.TrustServerCertificate = trustCert
		return cfg, nil
	}
}

// discreteVarsPresent returns which discrete-mode connection variables are
// set, used to detect mode conflicts.
func discreteVarsPresent(get func(string) string) []string {
	var present []string
	for _, key := range []string{EnvServer, EnvHost, EnvPort, EnvDatabase} {
		if get(key) != "" {
			present = append(present, key)
		}
	}
	return present
}

// resolveDiscrete builds a ConnConfig from the individual SCHCRWLR_* vars.
func resolveDiscrete(get func(string) string) (ConnConfig, error) {
	server := get(EnvServer)
	host := get(EnvHost)
	database := get(EnvDatabase)

	var missing []string
	if server == "" {
		missing = append(missing, EnvServer)
	}
	if host == "" {
		missing = append(missing, EnvHost)
	}
	if database == "" {
		missing = append(missing, EnvDatabase)
	}
	if len(missing) > 0 {
		return ConnConfig{}, &ConfigurationError{
			Msg: fmt.Sprintf("either %s or all of %s, %s, %s are required: missing %s",
				EnvJDBCURL, EnvServer, EnvHost, EnvDatabase, strings.Join(missing, ", ")),
		}
	}

	if !strings.EqualFold(server, "sqlserver") {
		return ConnConfig{}, &ConfigurationError{
			Msg: fmt.Sprintf("unsupported server type %q: only 'sqlserver' is supported", server),
		}
	}

	port := defaultPort
	if raw := get(EnvPort); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return ConnConfig{}, &ConfigurationError{
				Msg: fmt.Sprintf("%s must be a valid TCP port, got %q", EnvPort, raw),
			}
		}
		port = parsed
	}

	return ConnConfig{
		Mode:     ModeDiscrete,
		Host:     host,
		Port:     port,
		Database: database,
	}, nil
}

// jdbcPrefix is the only URL scheme the parser accepts.
const jdbcPrefix = "jdbc:sqlserver://"

// parseJDBCURL extracts host, port, database, and property pairs from a
// JDBC-style URL: jdbc:sqlserver://host[:port];databaseName=name;key=value;...
func parseJDBCURL(rawURL string) (ConnConfig, error) {
	if !strings.HasPrefix(rawURL, jdbcPrefix) {
		return ConnConfig{}, &ConfigurationError{
			Msg: fmt.Sprintf("%s must start with %q", EnvJDBCURL, jdbcPrefix),
		}
	}

	rest := strings.TrimPrefix(rawURL, jdbcPrefix)
	segments := strings.Split(rest, ";")

	hostPart := segments[0]
	if hostPart == "" {
		return ConnConfig{}, &ConfigurationError{
			Msg: fmt.Sprintf("%s is missing a host", EnvJDBCURL),
		}
	}

	host := hostPart
	port := defaultPort
	if idx := strings.LastIndex(hostPart, ":"); idx >= 0 {
		host = hostPart[:idx]
		rawPort := hostPart[idx+1:]
		parsed, err := strconv.Atoi(rawPort)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return ConnConfig{}, &ConfigurationError{
				Msg: fmt.Sprintf("%s has an invalid port %q", EnvJDBCURL, rawPort),
			}
		}
		port = parsed
	}
	if host == "" {
		return ConnConfig{}, &ConfigurationError{
			Msg: fmt.Sprintf("%s is missing a host", EnvJDBCURL),
		}
	}

	database := ""
	properties := map[string]string{}
	for _, seg := range segments[1:] {
		if seg == "" {
			continue
		}
		key, value, found := strings.Cut(seg, "=")
		if !found || key == "" {
			return ConnConfig{}, &ConfigurationError{
				Msg: fmt.Sprintf("%s has a malformed property segment %q", EnvJDBCURL, seg),
			}
		}
		if strings.EqualFold(key, "databaseName") {
			database = value
			continue
		}
		properties[key] = value
	}

	if database == "" {
		return ConnConfig{}, &ConfigurationError{
			Msg: fmt.Sprintf("%s is missing the databaseName property", EnvJDBCURL),
		}
	}
	if len(properties) == 0 {
		properties = nil
	}

	return ConnConfig{
		Mode:       ModeJDBCURL,
		Host:       host,
		Port:       port,
		Database:   database,
		Properties: properties,
	}, nil
}

// ConnString renders the descriptor as an ADO-style connection string for the
// sqlserver driver. Encryption is always requested; certificate trust follows
// TrustServerCertificate.
func (c ConnConfig) ConnString() string {
	parts := []string{
		fmt.Sprintf("server=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("database=%s", c.Database),
		fmt.Sprintf("user id=%s", c.User),
		fmt.Sprintf("password=%s", c.Password),
		"encrypt=true",
		fmt.Sprintf("TrustServerCertificate=%t", c.TrustServerCertificate),
	}

	keys := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, c.Properties[k]))
	}

	return strings.Join(parts, ";")
}

// Redacted returns a loggable description of the target without credentials.
func (c ConnConfig) Redacted() string {
	return fmt.Sprintf("sqlserver://%s:%d/%s", c.Host, c.Port, c.Database)
}
