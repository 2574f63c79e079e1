package mssqlmcp

import "context"

const serverVersionSQL = `
SELECT
  @@VERSION AS version,
  CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128)) AS product_version,
  CAST(SERVERPROPERTY('ProductLevel') AS NVARCHAR(128)) AS product_level,
  CAST(SERVERPROPERTY('Edition') AS NVARCHAR(128)) AS edition;
`

var serverVersionTemplate = QueryTemplate{Name: "server_version", SQL: serverVersionSQL}

// ServerVersion makes a fresh connection to the database and returns the
// server product name and version. Doubles as a connectivity check a caller
// can invoke on demand.
func (m *SQLServerMcp) ServerVersion(ctx context.Context) Envelope {
	rows, err := m.execute(ctx, serverVersionTemplate, nil)
	if err != nil {
		return m.shapeFailure(EchoParams{}, "Database connection failed", err)
	}
	return m.shapeSuccess(EchoParams{}, "Database connection successful", rows)
}
