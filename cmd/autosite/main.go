package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"autosite/internal/config"
	"autosite/internal/loader"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Warn("Received signal, cancelling run", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("AUTOSITE_CONFIG")
	if configPath == "" {
		configPath = config.DefaultConfigPath
		if root := os.Getenv("AUTOSITE_ROOT"); root != "" {
			configPath = filepath.Join(root, configPath)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	app, err := loader.NewLoader(cfg, logger).Initialize(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		app.Close(closeCtx)
	}()

	report, err := app.Runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println("OK slug=", report.Slug)
	fmt.Println("OK site_url=", report.SiteURL)
	fmt.Println("OK notify=", report.NotifyPath)
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
