package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	mssqlmcp "github.com/schcrwlr/sqlserver-mcp"

	"github.com/rs/zerolog"
)

func runDoctor() error {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file (optional)")
	skipProbe := fs.Bool("skip-probe", false, "Skip the live database connectivity probe")
	fs.Parse(os.Args[2:])

	useColor := isTTY(os.Stderr.Fd())
	return doctor(os.Stderr, useColor, *configPath, *skipProbe, os.LookupEnv)
}

func doctor(w io.Writer, useColor bool, configPath string, skipProbe bool, lookup mssqlmcp.LookupEnv) error {
	printBanner(w, useColor)

	connCfg, envOK := doctorCheckEnvironment(w, useColor, lookup)
	config, configOK := doctorCheckConfig(w, useColor, configPath)

	probeOK := true
	if envOK && configOK && !skipProbe {
		probeOK = doctorProbe(w, useColor, connCfg, config)
	}

	if !envOK || !configOK || !probeOK {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fix the issues above and run 'gomssqlmcp doctor' again.")
		return errors.New("doctor checks failed")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "All checks passed.")
	return nil
}

// doctorCheckEnvironment resolves the connection configuration from the
// environment and prints the result.
func doctorCheckEnvironment(w io.Writer, useColor bool, lookup mssqlmcp.LookupEnv) (mssqlmcp.ConnConfig, bool) {
	connCfg, err := mssqlmcp.ResolveConnConfig(lookup)
	if err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Connection environment resolves: %v", err))
		return mssqlmcp.ConnConfig{}, false
	}
	printCheck(w, useColor, true, fmt.Sprintf("Connection environment resolves (%s)", connCfg.Redacted()))
	return connCfg, true
}

// doctorCheckConfig loads the optional server config file and validates it.
func doctorCheckConfig(w io.Writer, useColor bool, configPath string) (mssqlmcp.ServerConfig, bool) {
	if configPath == "" {
		configPath = os.Getenv("GOMSSQLMCP_CONFIG_PATH")
	}
	if configPath == "" {
		configPath = ".gomssqlmcp/config.json"
	}

	config := mssqlmcp.DefaultServerConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			printCheck(w, useColor, true, fmt.Sprintf("No config file at %s, using defaults", configPath))
			return config, true
		}
		printCheck(w, useColor, false, fmt.Sprintf("Config file readable (%s): %v", configPath, err))
		return config, false
	}

	if err := json.Unmarshal(data, &config); err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Config file is valid JSON: %v", err))
		return config, false
	}
	printCheck(w, useColor, true, fmt.Sprintf("Config file loaded (%s)", configPath))

	allPassed := true
	if config.Server.Port <= 0 {
		printCheck(w, useColor, false, "server.port is > 0")
		allPassed = false
	} else {
		printCheck(w, useColor, true, fmt.Sprintf("server.port is > 0 (%d)", config.Server.Port))
	}

	regexOK := true
	for i, rule := range config.ErrorPrompts {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("error_prompts[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}
	for i, rule := range config.Sanitization {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("sanitization[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}
	for i, rule := range config.Query.TimeoutRules {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("timeout_rules[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}
	if regexOK {
		printCheck(w, useColor, true, "All regex patterns compile")
	}

	return config, allPassed
}

// doctorProbe runs the same liveness probe serve gates on.
func doctorProbe(w io.Writer, useColor bool, connCfg mssqlmcp.ConnConfig, config mssqlmcp.ServerConfig) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger := zerolog.New(io.Discard)
	engine, err := mssqlmcp.New(ctx, connCfg, config.Config, logger)
	if err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Database handle opens: %v", err))
		return false
	}
	defer engine.Close(ctx)

	if ok, diag := engine.Validate(ctx); !ok {
		printCheck(w, useColor, false, fmt.Sprintf("Database reachable: %s", diag))
		return false
	}
	printCheck(w, useColor, true, fmt.Sprintf("Database reachable (%s)", connCfg.Redacted()))
	return true
}

// printCheck prints a colored ✓ or ✗ check line.
func printCheck(w io.Writer, useColor bool, pass bool, msg string) {
	if pass {
		if useColor {
			fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✓ %s\n", msg)
		}
	} else {
		if useColor {
			fmt.Fprintf(w, "  \033[31m✗\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✗ %s\n", msg)
		}
	}
}
