package mssqlmcp

import "fmt"

// ConfigurationError reports malformed, ambiguous, or missing connection
// configuration. It is fatal: the CLI refuses to start when the environment
// cannot be resolved into a valid ConnConfig.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// ConnectionError reports a failure to establish or maintain a database
// session. Validate is the only place that downgrades it to a boolean;
// everywhere else it surfaces as a failure envelope.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// InvalidIdentifierError reports an untrusted schema-object name that failed
// allow-list validation. Raised before any SQL text is composed.
type InvalidIdentifierError struct {
	Param  string
	Value  string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier for parameter %q: %s", e.Param, e.Reason)
}

// QueryExecutionError reports a driver-level failure while executing a
// template. It never propagates past the executor boundary raw; tools
// convert it into a failure envelope.
type QueryExecutionError struct {
	Template string
	Err      error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed (template %s): %v", e.Template, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }
