package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clinicops/availability/internal/config"
	"github.com/clinicops/availability/internal/domain/availability"
	"github.com/clinicops/availability/internal/domain/scheduling"
	"github.com/clinicops/availability/internal/platform/cache"
	"github.com/clinicops/availability/internal/platform/db"
	"github.com/clinicops/availability/internal/platform/middleware"
	"github.com/clinicops/availability/internal/platform/telemetry"
	"github.com/clinicops/availability/migrations"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "availability-server",
		Short:   "Doctor availability and slot API server",
		Version: version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(slotsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the availability API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newLogger builds the process logger. Development mode writes human-readable
// console output.
func newLogger(out io.Writer, env, level string) zerolog.Logger {
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(parseLogLevel(level)).With().Timestamp().Logger()
}

func parseLogLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stdout, cfg.Env, cfg.LogLevel)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.FS, logger).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stdout, cfg.Env, cfg.LogLevel)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS, logger).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Logger
	logger := newLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	zerolog.DefaultContextLogger = &logger

	ctx := context.Background()

	// Tracing
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    "availability-server",
		ServiceVersion: version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRatio:    cfg.OTelSamplingRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error().Err(err).Msg("tracer shutdown failed")
		}
	}()

	// Database
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	readiness := map[string]db.Pinger{"postgres": pool}

	// Cache
	var dateCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rc.Close()
		dateCache = rc
		readiness["redis"] = rc
		logger.Info().Msg("connected to redis")
	}

	// Domain
	engine := availability.NewEngine(
		availability.WithLogger(logger),
		availability.WithWorkers(cfg.BulkWorkers),
	)
	svc := scheduling.NewService(
		scheduling.NewScheduleRepoPG(pool),
		scheduling.NewExceptionRepoPG(pool),
		scheduling.NewAppointmentRepoPG(pool),
		engine,
	)
	svc.SetCache(dateCache, cfg.CacheTTL())
	svc.SetClock(loc, time.Now)
	svc.SetMaxRangeDays(cfg.MaxRangeDays)
	svc.SetLogger(logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout()))

	// API
	apiV1 := e.Group("/api/v1")
	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.BurstSize = cfg.RateLimitBurst
	apiV1.Use(middleware.RateLimit(rl))
	scheduling.NewHandler(svc).RegisterRoutes(apiV1)

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/health/ready", db.ReadinessHandler(readiness))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, "availability"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
