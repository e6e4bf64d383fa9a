package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prilive-com/packbot"
	"github.com/prilive-com/packbot/internal/config"
)

var (
	configFile      = flag.String("config", "", "Path to a YAML config file (default: packbot.yaml in . or ./config)")
	shutdownTimeout = flag.Duration("shutdown-timeout", 30*time.Second, "How long to wait for running handlers on shutdown")
)

func main() {
	flag.Parse()

	opts := config.DefaultOptions()
	opts.ConfigFile = *configFile
	cfg, err := config.Load(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bot, err := packbot.New(ctx, *cfg, packbot.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	runErr := bot.Run(ctx)
	if runErr != nil {
		logger.Error("bot stopped with error", "error", runErr)
	}

	logger.Info("shutting down", "timeout", *shutdownTimeout)
	shutdownCtx, stop := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer stop()
	if err := bot.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
}
