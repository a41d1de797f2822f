package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for MCP server mode. The MCP protocol
// uses stdout exclusively for JSON-RPC, and clients treat stderr output as
// noise, so logs go ONLY to the log file. Debug level is always enabled so
// a misbehaving session can be diagnosed after the fact.
func SetupMCPMode() (func(), error) {
	return SetupMCPModeWithLevel("debug")
}

// SetupMCPModeWithLevel initializes MCP-safe logging with a specific level.
func SetupMCPModeWithLevel(level string) (func(), error) {
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false, // stdout/stderr belong to the protocol stream
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("mcp_logging_initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
