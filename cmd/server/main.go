// Package main is the entry point for the Triforge API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (environment, optional .env file)
// 2. Create dependencies (logger, store, asset uploader)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/triforge/triforge-api/internal/asset"
	"github.com/triforge/triforge-api/internal/config"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/repository/postgres"
	"github.com/triforge/triforge-api/internal/repository/sqlite"
	"github.com/triforge/triforge-api/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// === 2. SET UP LOGGING ===
	logger, closeLog := newLogger(cfg)
	defer closeLog()
	slog.SetDefault(logger)

	// === 3. OPEN THE STORE ===
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("store opened", slog.String("driver", cfg.DBDriver))

	// === 4. ASSET HOST ===
	// Optional: without credentials, URL images work and file uploads fail.
	var uploader asset.Uploader
	if cld, err := asset.NewCloudinary(cfg.Cloudinary(), logger); err != nil {
		logger.Warn("image uploads disabled", slog.String("reason", err.Error()))
	} else {
		uploader = cld
	}

	// === 5. CREATE, BOOTSTRAP AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:             cfg.Port,
		Production:       cfg.IsProduction(),
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		CORSOrigins:      cfg.CORSOrigins,
		ContactRateLimit: cfg.ContactRateLimit,
		LoginRateLimit:   cfg.LoginRateLimit,
		SeedSegments:     cfg.SeedSegments,
		AdminEmail:       cfg.AdminEmail,
		AdminPassword:    cfg.AdminPassword,
		AdminName:        cfg.AdminNamePtr(),
	}, store, uploader, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	if err := srv.Bootstrap(ctx); err != nil {
		store.Close()
		return err
	}

	// Start() blocks until SIGINT/SIGTERM and closes the store on the way out.
	return srv.Start()
}

// newLogger builds the process logger from LOG_LEVEL, LOG_FORMAT and
// LOG_FILE. With LOG_FILE set, logs go to stdout and a rotating file.
func newLogger(cfg *config.Config) (*slog.Logger, func()) {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.LogLevel)) // validated by config

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o750); err != nil {
			fmt.Fprintf(os.Stderr, "log directory unavailable, logging to stdout only: %v\n", err)
		} else {
			rotating := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    50, // megabytes
				MaxBackups: 5,
				MaxAge:     28, // days
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, rotating)
			closeFn = func() { _ = rotating.Close() }
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(out, opts)), closeFn
	}
	return slog.New(slog.NewTextHandler(out, opts)), closeFn
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil
	default:
		if cfg.DBPath != ":memory:" {
			// os.MkdirAll is `mkdir -p`; 0755 = owner rwx, others r-x.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	}
}
