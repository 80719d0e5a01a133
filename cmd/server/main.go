// Package main is the entry point for the link organizer server.
//
// main stays minimal: read configuration from the environment, build the
// logger, hand both to internal/server. All behavior lives in the internal
// packages.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wtjandra96/modern-webapp-sub000/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (server.Config, error) {
	cfg := server.Config{
		Port:       8080,
		DBPath:     "data/app.db",
		JWTSecret:  os.Getenv("JWT_SECRET"),
		CORSOrigin: os.Getenv("CORS_ORIGIN"),

		GuestMode:    os.Getenv("GUEST_MODE") == "1",
		GuestDataDir: os.Getenv("GUEST_DATA_DIR"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if cfg.GuestMode {
		// Guest mode needs no database file and no secret.
		return cfg, nil
	}

	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		cfg.DBPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return cfg, fmt.Errorf("creating database directory: %w", err)
	}

	if cfg.JWTSecret == "" {
		// Generate one with: openssl rand -hex 32
		return cfg, errors.New("JWT_SECRET is required outside guest mode")
	}

	return cfg, nil
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
