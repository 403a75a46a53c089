// cmd/console/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/bundler-console/internal/api"
	"github.com/rovshanmuradov/bundler-console/internal/arbiter"
	"github.com/rovshanmuradov/bundler-console/internal/config"
	"github.com/rovshanmuradov/bundler-console/internal/events"
	"github.com/rovshanmuradov/bundler-console/internal/logger"
	"github.com/rovshanmuradov/bundler-console/internal/poller"
	"github.com/rovshanmuradov/bundler-console/internal/reconcile"
	"github.com/rovshanmuradov/bundler-console/internal/ui"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to configuration file")
	operationID := flag.String("operation", "", "bundle operation id to monitor")
	flag.Parse()

	if *operationID == "" {
		fmt.Fprintln(os.Stderr, "usage: console -operation <id> [-config <path>]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	zapLogger.Info("Starting bundler console",
		zap.String("operation", *operationID),
		zap.String("api", cfg.APIBaseURL))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := api.NewClient(&api.ClientConfig{
		BaseURL:    cfg.APIBaseURL,
		MaxRetries: uint(cfg.Retries),
		Logger:     zapLogger,
	})

	model := reconcile.NewModel(zapLogger)
	bus := events.NewBus(zapLogger, 64)

	supervisor, err := poller.NewSupervisor(ctx, &poller.Config{
		OperationID:     *operationID,
		Backend:         client,
		Model:           model,
		Logger:          zapLogger,
		DetailInterval:  cfg.DetailInterval(),
		DerivedInterval: cfg.DerivedInterval(),
		FetchTimeout:    cfg.FetchTimeoutDuration(),
	})
	if err != nil {
		zapLogger.Fatal("Failed to create poller", zap.Error(err))
	}

	controls, err := arbiter.New(&arbiter.Config{
		OperationID:    *operationID,
		Backend:        client,
		Refresher:      supervisor,
		Bus:            bus,
		Logger:         zapLogger,
		FastSellBudget: cfg.FastSellBudget(),
		SlowSellBudget: cfg.SlowSellBudget(),
	})
	if err != nil {
		zapLogger.Fatal("Failed to create arbiter", zap.Error(err))
	}

	supervisor.Start()

	dashboard := ui.NewDashboard(&ui.DashboardConfig{
		Model:   model,
		Arbiter: controls,
		Bus:     bus,
		Logger:  zapLogger,
	})

	program := tea.NewProgram(dashboard, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		zapLogger.Error("Console exited with error", zap.Error(err))
	}

	supervisor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := bus.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("Event bus shutdown incomplete", zap.Error(err))
	}

	zapLogger.Info("Bundler console stopped")
}
