// Package main is the entry point for the guestbook server.
//
// The main package stays minimal. Its job is to:
// 1. Read configuration (defaults, optional YAML file, env vars)
// 2. Create dependencies (logger, data directory)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, ...).
//
// USAGE:
//
//	go run ./cmd/server                        # defaults + env
//	go run ./cmd/server -config guestbook.yaml # file + env
//	DB_DRIVER=postgres DATABASE_URL=postgres://... go run ./cmd/server
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/guestbook/internal/config"
	"github.com/sakif/guestbook/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		// No configured logger yet, so fall back to a plain one on stderr.
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Level and format come from config: text for a terminal, json for log shippers.
	logger := cfg.Logging.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// === 3. DATA DIRECTORY ===
	// SQLite needs its parent directory to exist. os.MkdirAll is `mkdir -p`.
	if cfg.Database.Driver == config.DriverSQLite && cfg.Database.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
