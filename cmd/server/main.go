/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the meal-plan freeze engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (flags -> viper: env, config.toml, defaults)
  2. Build the zap logger
  3. Initialize SQLite store (migrations run here)
  4. Load meal-plan templates
  5. Create freeze service, metrics, handler, router
  6. Start lifecycle scheduler and HTTP server
  7. Graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a config file (default: search ./config.toml)
  -port    Overrides app.port
  -db      Overrides database.path (":memory:" for in-memory)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (http.shutdown_timeout)
  4. Close database connection

ENVIRONMENT:
  MEALPLAN_APP_PORT, MEALPLAN_DATABASE_PATH, MEALPLAN_LOG_LEVEL,
  MEALPLAN_AUTH_JWT_SECRET, MEALPLAN_FREEZE_TIMEZONE, ... (see config/)

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dtps/mealplan-engine/api"
	"github.com/dtps/mealplan-engine/config"
	"github.com/dtps/mealplan-engine/factory"
	"github.com/dtps/mealplan-engine/logger"
	"github.com/dtps/mealplan-engine/mealplan"
	"github.com/dtps/mealplan-engine/metrics"
	"github.com/dtps/mealplan-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	// Flags
	configFile := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.App.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	zl, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zl.Sync()
	zl = zl.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	templates := factory.NewTemplateFactory()
	if err := templates.LoadDir(cfg.Templates.Path); err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	recorder := metrics.New()
	service := mealplan.NewService(store,
		mealplan.WithLocation(loc),
		mealplan.WithLogger(zl.Named("freeze")),
		mealplan.WithRecorder(recorder),
	)

	if cfg.Auth.JWTSecret == "" {
		zl.Warn("auth.jwt_secret is empty; bearer tokens cannot be validated")
	}
	auth := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.DevBypass && !cfg.IsProduction())

	handler := api.NewHandler(store, service, templates, zl)
	router := api.NewRouter(handler, api.RouterConfig{
		Auth:            auth,
		Metrics:         recorder.Handler(),
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		EnableScenarios: !cfg.IsProduction(),
	})

	scheduler := api.NewLifecycleScheduler(store, service, zl)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		zl.Info("server starting",
			zap.Int("port", cfg.App.Port),
			zap.String("database", cfg.Database.Path),
			zap.String("timezone", loc.String()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		zl.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zl.Info("server stopped")
	return nil
}
