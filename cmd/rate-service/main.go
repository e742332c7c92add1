package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Dan9191/lending-service/internal/config"
	"github.com/Dan9191/lending-service/internal/handler"
	"github.com/Dan9191/lending-service/internal/middleware"
	"github.com/Dan9191/lending-service/internal/repository"
	"github.com/Dan9191/lending-service/internal/service"
)

func main() {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:   "rate-service",
		Short: "Serves interest rates by loan type",
		Long: `Serves GET /api/rates/{type}.
	Every flag can also be set through the environment:
RATE_SERVICE_LISTEN             // example: :8080
RATE_SERVICE_DB_CONN            // example: host=localhost port=5432 user=test password=test dbname=rates sslmode=disable
RATE_SERVICE_LOG_LEVEL          // example: debug
RATE_SERVICE_STORAGE            // postgres or memory
RATE_SERVICE_SHUTDOWN_TIMEOUT   // example: 10s
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return run(cfg, newLogger(cfg.LogLevel))
		},
	}

	flags := rootCmd.Flags()
	flags.String("listen", v.GetString("listen"), "address to listen on")
	flags.String("db", v.GetString("db_conn"), "PostgreSQL connection string")
	flags.String("log-level", v.GetString("log_level"), "log level")
	flags.String("storage", v.GetString("storage"), "rate storage: postgres or memory")
	bindFlags(v, rootCmd, map[string]string{
		"listen":    "listen",
		"db":        "db_conn",
		"log-level": "log_level",
		"storage":   "storage",
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// openStore returns the configured rate store and a function releasing it
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.RateStore, func() error, error) {
	if cfg.Storage == config.StorageMemory {
		db, err := repository.NewMemDB()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using in-memory storage")
		return repository.NewMemRateRepository(db), func() error { return nil }, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Database schema ready")
	return repository.NewRateRepository(db), db.Close, nil
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Seed before the listener accepts traffic
	if err := service.Initialize(ctx, store, logger); err != nil {
		return err
	}

	// Initialize layers
	svc := service.NewRateService(store, logger)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	h.Register(r)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
