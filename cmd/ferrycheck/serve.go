package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/ferry-trace/verifier/internal/api"
	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/history"
	"github.com/ferry-trace/verifier/internal/session"
	"github.com/ferry-trace/verifier/internal/storage"
)

const defaultConfigName = "ferrycheck.config"

func newServeCmd(root *rootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the verification HTTP service",
		Long: `Start an HTTP service that verifies posted logs, stores uploaded logs,
runs verifications in the background and keeps a report history.

The XML configuration is created with defaults on first run. PORT and
DATA_DIR override the configured port and data directory.

Examples:
  ferrycheck serve
  ferrycheck serve --config /etc/ferrycheck/ferrycheck.config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				exePath, err := os.Executable()
				if err != nil {
					return fmt.Errorf("failed to get executable path: %w", err)
				}
				configPath = filepath.Join(filepath.Dir(exePath), defaultConfigName)
			}
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cmd.Flags().Changed("log-level") && cfg.Advanced.LogLevel != "" {
				root.logLevel = cfg.Advanced.LogLevel
			}
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, configPath, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "XML configuration file (default: "+defaultConfigName+" next to the executable)")
	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig, configPath string, logger *slog.Logger, out io.Writer) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := checker.NewRegistry()
	deps := &api.Dependencies{
		Store:    fileStore,
		Registry: registry,
		Defaults: cfg.Verification,
		Logger:   logger,
		Version:  Version,
	}
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithFileStore(fileStore),
		session.WithRegistry(registry),
	}

	if cfg.History.Enabled {
		reports, err := history.Open(cfg.History.DatabasePath, history.Options{
			Threads:     cfg.Advanced.DuckDBThreads,
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("failed to open report history: %w", err)
		}
		defer reports.Close()
		deps.Reports = reports
		deps.Sink = reports
		sessionOpts = append(sessionOpts, session.WithReportSink(reports))
	}

	sessionMgr := session.NewManager(sessionOpts...)
	deps.Runs = sessionMgr

	// Background run cleanup
	interval := time.Duration(cfg.Advanced.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		maxAge := time.Duration(cfg.Advanced.SessionTimeoutMinutes) * time.Minute
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(maxAge); n > 0 {
					logger.Info("cleaned up runs", "removed", n)
				}
			}
		}
	}()

	api.ShowErrorDetails = logger.Enabled(ctx, slog.LevelDebug)

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, api.MiddlewareOptions{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		BodyLimit:      cfg.Server.BodyLimit,
		Timeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
	})
	api.RegisterRoutes(e, api.NewHandlers(deps))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(out, cfg, configPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	sessionMgr.Wait()
	return nil
}

func printBanner(out io.Writer, cfg *config.AppConfig, configPath string) {
	historyPath := "disabled"
	if cfg.History.Enabled {
		historyPath = cfg.History.DatabasePath
	}
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(out, "║           Ferry Trace Verifier                            ║\n")
	fmt.Fprintf(out, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(out, "║  Version:    %-45s║\n", Version)
	fmt.Fprintf(out, "║  Build Time: %-45s║\n", BuildTime)
	fmt.Fprintf(out, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(out, "║  Config:    %-46s║\n", configPath)
	fmt.Fprintf(out, "║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Fprintf(out, "║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Fprintf(out, "║  History:   %-46s║\n", historyPath)
	fmt.Fprintf(out, "╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Fprintf(out, "\n")
}
