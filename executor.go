package mssqlmcp

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/schcrwlr/sqlserver-mcp/internal/identifier"
)

// ParamKind tags how a template parameter is bound into SQL.
type ParamKind int

const (
	// ParamLiteral parameters go through the driver's native named-parameter
	// binding and are never interpolated into SQL text.
	ParamLiteral ParamKind = iota
	// ParamIdentifier parameters are schema-object names. SQL Server cannot
	// bind them as values, so they are allow-list validated and then
	// interpolated positionally.
	ParamIdentifier
)

// ParamSpec describes one ordered parameter slot of a template.
type ParamSpec struct {
	Name string
	Kind ParamKind
}

// QueryTemplate is a fixed SQL statement with tagged parameter slots.
// Identifier slots use {{name}} placeholders; literal slots use @name
// driver placeholders. Templates are defined at build time and immutable.
type QueryTemplate struct {
	Name   string
	SQL    string
	Params []ParamSpec

	// Timeout overrides the configured default when > 0. Pattern-based
	// timeout rules still take precedence.
	Timeout time.Duration
}

// composeSQL validates and binds the template's parameters. All identifier
// parameters are validated before any text substitution happens; a single
// bad value means zero SQL is composed. Identifier values that the SQL also
// references as @name (e.g. catalog-view filters) are additionally bound as
// literals.
func composeSQL(tpl QueryTemplate, args map[string]string) (string, []interface{}, error) {
	for _, p := range tpl.Params {
		value, ok := args[p.Name]
		if !ok {
			return "", nil, &QueryExecutionError{
				Template: tpl.Name,
				Err:      &missingParamError{name: p.Name},
			}
		}
		if p.Kind == ParamIdentifier {
			if err := identifier.Validate(value); err != nil {
				return "", nil, &InvalidIdentifierError{
					Param:  p.Name,
					Value:  value,
					Reason: err.Error(),
				}
			}
		}
	}

	sqlText := tpl.SQL
	var named []interface{}
	for _, p := range tpl.Params {
		value := args[p.Name]
		switch p.Kind {
		case ParamIdentifier:
			sqlText = strings.ReplaceAll(sqlText, "{{"+p.Name+"}}", value)
			if strings.Contains(sqlText, "@"+p.Name) {
				named = append(named, sql.Named(p.Name, value))
			}
		case ParamLiteral:
			named = append(named, sql.Named(p.Name, value))
		}
	}
	return sqlText, named, nil
}

type missingParamError struct {
	name string
}

func (e *missingParamError) Error() string {
	return "missing template parameter " + e.name
}

// execute runs one template on a scoped connection and returns the ordered
// result rows. Errors are typed (*InvalidIdentifierError, *ConnectionError,
// *QueryExecutionError); tools convert them to failure envelopes; nothing
// raw crosses the tool boundary.
func (m *SQLServerMcp) execute(ctx context.Context, tpl QueryTemplate, args map[string]string) ([]Row, error) {
	startTime := time.Now()

	sqlText, named, err := composeSQL(tpl, args)
	if err != nil {
		return nil, err
	}

	queryTimeout, timeoutRule := m.timeoutMgr.Resolve(sqlText)
	if timeoutRule == "" && tpl.Timeout > 0 {
		queryTimeout = tpl.Timeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	conn, err := m.acquire(queryCtx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryxContext(queryCtx, sqlText, named...)
	if err != nil {
		return nil, &QueryExecutionError{Template: tpl.Name, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &QueryExecutionError{Template: tpl.Name, Err: err}
	}

	var result []Row
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, &QueryExecutionError{Template: tpl.Name, Err: err}
		}
		row := newRow(columns)
		for i, col := range columns {
			row.set(col, m.sanitizer.Value(convertValue(values[i])))
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryExecutionError{Template: tpl.Name, Err: err}
	}

	logEvent := m.logger.Debug().
		Str("template", tpl.Name).
		Dur("duration", time.Since(startTime)).
		Int("row_count", len(result))
	if timeoutRule != "" {
		logEvent = logEvent.Str("timeout_rule", timeoutRule)
	}
	logEvent.Msg("template executed")

	return result, nil
}

// convertValue maps driver-returned values to JSON-friendly Go types.
// nil stays nil: SQL NULL must serialize as an explicit null. No other
// coercion happens beyond the driver's native type mapping.
func convertValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return val
	}
}
