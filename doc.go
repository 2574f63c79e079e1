// Package mssqlmcp exposes SQL Server performance-analysis tools for AI
// agents through the Model Context Protocol (MCP).
//
// Every tool runs one fixed, compiled-in SQL template and returns a uniform
// JSON envelope: success flag, message, echoed identifiers, row data, and an
// error diagnostic on failure. Callers branch on the success field; tool
// invocations never raise.
//
// Untrusted identifier inputs (database, schema, and table names) cannot be
// bound as driver parameters in T-SQL, so they are validated against a strict
// allow-list pattern before any SQL text is composed. All other parameters go
// through native driver binding.
//
// # Usage
//
//	connCfg, err := mssqlmcp.ResolveConnConfig(os.LookupEnv)
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine, err := mssqlmcp.New(ctx, connCfg, mssqlmcp.DefaultServerConfig().Config, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close(ctx)
//
//	if ok, diag := engine.Validate(ctx); !ok {
//		log.Fatal(diag)
//	}
//
//	// Use directly
//	env := engine.TopQueries(ctx, mssqlmcp.TopQueriesInput{Metric: "cpu"})
//
//	// Or register as MCP tools
//	mssqlmcp.RegisterMCPTools(mcpServer, engine)
package mssqlmcp
