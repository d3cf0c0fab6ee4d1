package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/router"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "blog",
		Short:         "Blog backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return cmd
}

// bootstrap loads the configuration and opens the connections it names
func bootstrap() (*config.Config, *zap.Logger, *config.DB, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := config.InitDB(cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}
	return cfg, log, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.CloseDB()

			if db.Postgres != nil {
				if err := repositories.AutoMigrate(db.Postgres); err != nil {
					return fmt.Errorf("failed to auto migrate models: %w", err)
				}
				log.Info("PostgreSQL auto-migrations completed")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := router.NewDependencies(ctx, cfg, db, log)
			if err != nil {
				return err
			}
			defer deps.Publisher.Close()

			e := echo.New()
			e.HideBanner = true
			config.SetupMiddleware(e, log)
			router.SetupRoutes(e, deps)

			var metricsServer *http.Server
			if cfg.MetricsPort != "" {
				metricsServer = &http.Server{Addr: ":" + cfg.MetricsPort, Handler: deps.Metrics.Handler()}
				go func() {
					if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("Metrics server stopped", zap.Error(err))
					}
				}()
				log.Info("Metrics server listening", zap.String("port", cfg.MetricsPort))
			}

			go func() {
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server stopped", zap.Error(err))
					stop()
				}
			}()
			log.Info("Server started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

			<-ctx.Done()
			log.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if metricsServer != nil {
				_ = metricsServer.Shutdown(shutdownCtx)
			}
			return e.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.CloseDB()

			if db.Postgres == nil {
				return errors.New("migrate needs STORAGE=postgres")
			}
			if err := repositories.AutoMigrate(db.Postgres); err != nil {
				return fmt.Errorf("failed to auto migrate models: %w", err)
			}
			log.Info("PostgreSQL auto-migrations completed")
			return nil
		},
	}
}
