package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	mssqlmcp "github.com/schcrwlr/sqlserver-mcp"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

func runServe() error {
	ctx := context.Background()

	// 1. Load ServerConfig (optional file, defaults otherwise)
	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverConfig.Server.Port <= 0 {
		panic("gomssqlmcp: server.port must be > 0")
	}

	// 2. Resolve connection configuration. This is the only place the
	// environment is read; everything downstream gets the value.
	connCfg, err := mssqlmcp.ResolveConnConfig(os.LookupEnv)
	if err != nil {
		return err
	}

	// 3. Setup logger
	logger := setupLogger(serverConfig.Logging)

	// 4. Create engine
	engine, err := mssqlmcp.New(ctx, connCfg, serverConfig.Config, logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close(ctx)

	// 5. Startup connectivity probe; the process must not serve a single
	// tool call unless this passes.
	logger.Info().Str("target", connCfg.Redacted()).Msg("validating database connection")
	if ok, diag := engine.Validate(ctx); !ok {
		logger.Error().Str("diagnostic", diag).Msg("database connection validation failed")
		return fmt.Errorf("database connection validation failed: %s", diag)
	}
	logger.Info().Msg("database connection validated")

	// 6. Create MCP server with initialize lifecycle logging
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("gomssqlmcp", "1.0.0",
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)

	mssqlmcp.RegisterMCPTools(mcpServer, engine)

	// 7. Start HTTP server with optional health check
	addr := fmt.Sprintf(":%d", serverConfig.Server.Port)
	mux := http.NewServeMux()

	// Health check endpoint (process liveness only, not DB connectivity)
	if serverConfig.Server.HealthCheckEnabled {
		if serverConfig.Server.HealthCheckPath == "" {
			panic("gomssqlmcp: health_check_path must be set when health_check_enabled is true")
		}
		mux.HandleFunc(serverConfig.Server.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Manually register the MCP handler; Start() does NOT register
	// when a custom *http.Server is provided via WithStreamableHTTPServer.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", serverConfig.Server.Port).Msg("starting gomssqlmcp server")
	return streamableServer.Start(addr)
}

// loadServerConfig reads the optional server config file. A missing file is
// not an error; defaults apply. A present but malformed file is.
func loadServerConfig() (*mssqlmcp.ServerConfig, error) {
	configPath := os.Getenv("GOMSSQLMCP_CONFIG_PATH")
	if configPath == "" {
		configPath = ".gomssqlmcp/config.json"
	}

	config := mssqlmcp.DefaultServerConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &config, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return &config, nil
}

func setupLogger(config mssqlmcp.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	} else if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
