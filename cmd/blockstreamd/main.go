// Command blockstreamd serves document extraction over HTTP.
//
// Environment:
//
//	ADDR               listen address (default ":8080")
//	BLOCKSTREAM_CONFIG path to a YAML config file
//	LOG_LEVEL          debug, info, warn, or error (default info)
//
// The BLOCKSTREAM_* and TESSDATA_PREFIX variables documented on
// blockstream.Config.ApplyEnv override the config file. A .env file in the
// working directory is loaded first when present.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tsawler/blockstream"
	"github.com/tsawler/blockstream/internal/server"
	"github.com/tsawler/blockstream/ocr"
)

func main() {
	_ = godotenv.Load()

	addr := env("ADDR", ":8080")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(env("LOG_LEVEL", "info"))}))
	slog.SetDefault(logger)

	cfg, err := blockstream.LoadConfig(os.Getenv("BLOCKSTREAM_CONFIG"))
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		logger.Error("config env", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logger

	if !ocr.Enabled() {
		logger.Warn("OCR support not compiled in; images will carry failure markers")
	}

	d, err := blockstream.NewDispatcher(cfg)
	if err != nil {
		logger.Error("dispatcher", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(d, logger),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr, "workers", cfg.Workers, "ocr", ocr.Version())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func logLevel(s string) slog.Level {
	switch s {
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
