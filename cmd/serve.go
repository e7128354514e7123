package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tusharsharma89566/Edu-Learn/internal/handlers"
	"github.com/tusharsharma89566/Edu-Learn/internal/observability"
	"github.com/tusharsharma89566/Edu-Learn/internal/utils"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, slogLogger, err := loadConfig()
	if err != nil {
		return err
	}
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize tracing
	shutdownTracing, err := observability.InitTracing(ctx, cfg, slogLogger)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	}

	a, err := newApp(ctx, cfg, slogLogger)
	if err != nil {
		return err
	}

	// Start event consumers
	a.serviceManager.RegisterConsumers(a.bus)
	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	go func() {
		if err := a.bus.Run(busCtx); err != nil {
			logger.Error("Event bus stopped", "error", err)
		}
	}()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(a.serviceManager, logger, cfg.Telemetry.MetricsEnabled)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case runErr = <-serverErr:
		logger.Error("Server failed", "error", runErr)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", "error", err)
	}
	stopBus()
	a.close(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", "error", err)
	}

	logger.Info("Server exited")
	return runErr
}
