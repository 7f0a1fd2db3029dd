package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docforge/internal/api"
	"github.com/dgallion1/docforge/internal/config"
	"github.com/dgallion1/docforge/internal/generate"
	"github.com/dgallion1/docforge/internal/pipeline"
	"github.com/dgallion1/docforge/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func runServe(_ *cobra.Command, _ []string) error {
	loader, err := config.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	cfg := loader.Load()

	level := new(slog.LevelVar)
	level.Set(logLevel(cfg.LogLevel))
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize storage and clients.
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	defer st.Close()

	gen := generate.NewClient(generate.ClientConfig{
		URL:      cfg.UpstreamURL,
		APIKey:   cfg.UpstreamAPIKey,
		Timeout:  cfg.UpstreamTimeout,
		Attempts: cfg.UpstreamAttempts,
	}, generate.NewStats(time.Hour), log)
	defer gen.Close()

	if loader.File() != "" {
		loader.Watch(func(next config.Config, e fsnotify.Event) {
			if err := next.Validate(); err != nil {
				log.Warn("ignoring invalid config reload", "file", e.Name, "error", err)
				return
			}
			level.Set(logLevel(next.LogLevel))
			gen.Reconfigure(next.UpstreamURL, next.UpstreamAPIKey)
			log.Info("config reloaded", "file", e.Name, "upstream_enabled", gen.Enabled())
		})
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, gen, st, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docforge", "port", cfg.Port, "persistent_store", cfg.DatabaseURL != "", "upstream_enabled", gen.Enabled())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
			orch.Stop()
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	orch.Stop()
	return nil
}
