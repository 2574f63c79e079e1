package mssqlmcp

import (
	"bytes"
	"encoding/json"
)

// Row is one result row: an ordered mapping from column name to value.
// Key order follows the driver's result metadata. A SQL NULL column is
// present with a nil value; it serializes as an explicit JSON null, never
// as a missing key.
type Row struct {
	columns []string
	values  map[string]interface{}
}

// newRow creates a row over the given column order. The columns slice is
// shared across all rows of one result set.
func newRow(columns []string) Row {
	return Row{columns: columns, values: make(map[string]interface{}, len(columns))}
}

func (r Row) set(column string, value interface{}) {
	r.values[column] = value
}

// Get returns the value for column and whether the column exists.
// A NULL column returns (nil, true).
func (r Row) Get(column string) (interface{}, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the column names in result-metadata order.
func (r Row) Columns() []string {
	return r.columns
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.columns)
}

// MarshalJSON emits the row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Envelope is the uniform wrapper every tool call returns across the system
// boundary. Callers branch on Success, never on error types; per-call
// failures never escape as raised errors.
type Envelope struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DatabaseName string `json:"database_name"`
	SchemaName   string `json:"schema_name"`
	TableName    string `json:"table_name"`
	ColumnCount  int    `json:"column_count"`
	Data         []Row  `json:"data"`
	Error        string `json:"error"`
}

// EchoParams carries the input identifiers a tool echoes back in its
// envelope. Tools without table-level inputs leave the fields empty.
type EchoParams struct {
	DatabaseName string
	SchemaName   string
	TableName    string
}

// shapeSuccess wraps executor rows into a success envelope.
func (m *SQLServerMcp) shapeSuccess(echo EchoParams, message string, rows []Row) Envelope {
	if rows == nil {
		rows = []Row{}
	}
	return Envelope{
		Success:      true,
		Message:      message,
		DatabaseName: echo.DatabaseName,
		SchemaName:   echo.SchemaName,
		TableName:    echo.TableName,
		ColumnCount:  len(rows),
		Data:         rows,
	}
}

// shapeFailure converts a per-call error into a failure envelope. The error
// text is evaluated against error_prompts; matching guidance is appended so
// the caller sees an actionable diagnostic instead of a bare driver error.
func (m *SQLServerMcp) shapeFailure(echo EchoParams, message string, err error) Envelope {
	errMsg := err.Error()
	prompt, patterns := m.errPrompts.Match(errMsg)

	logEvent := m.logger.Error().Err(err)
	if len(patterns) > 0 {
		logEvent = logEvent.Strs("error_prompts", patterns)
	}
	logEvent.Msg("tool call failed")

	if prompt != "" {
		errMsg = errMsg + "\n\n" + prompt
	}
	return Envelope{
		Success:      false,
		Message:      message + ": " + err.Error(),
		DatabaseName: echo.DatabaseName,
		SchemaName:   echo.SchemaName,
		TableName:    echo.TableName,
		ColumnCount:  0,
		Data:         []Row{},
		Error:        errMsg,
	}
}
