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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vetcare/vetcare/internal/config"
	"github.com/vetcare/vetcare/internal/domain/booking"
	"github.com/vetcare/vetcare/internal/domain/ledger"
	"github.com/vetcare/vetcare/internal/domain/membership"
	"github.com/vetcare/vetcare/internal/domain/pet"
	"github.com/vetcare/vetcare/internal/domain/redeem"
	"github.com/vetcare/vetcare/internal/platform/auth"
	"github.com/vetcare/vetcare/internal/platform/db"
	"github.com/vetcare/vetcare/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetcare-server",
		Short: "Veterinary appointment booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeout) * time.Second))

	// Health check
	e.GET("/health", db.HealthHandler(pool, version))

	// API groups
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	adminV1 := apiV1.Group("/admin", auth.RequireAdmin())

	// Domain wiring. The shared transaction runner lets one service call span
	// several repositories in a single commit.
	txRunner := db.NewTxRunner(pool)

	ledgerRepo := ledger.NewPGRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo, txRunner, logger)
	ledger.NewHandler(ledgerSvc).RegisterRoutes(apiV1, adminV1)

	petRepo := pet.NewPGRepository(pool)
	petSvc := pet.NewService(petRepo, logger)
	pet.NewHandler(petSvc).RegisterRoutes(apiV1)

	membershipRepo := membership.NewPGRepository(pool)
	membershipSvc := membership.NewService(membershipRepo, ledgerSvc, txRunner, logger)
	membership.NewHandler(membershipSvc).RegisterRoutes(apiV1, adminV1)

	redeemRepo := redeem.NewPGRepository(pool)
	redeemSvc := redeem.NewService(redeemRepo, ledgerSvc, txRunner, logger)
	redeem.NewHandler(redeemSvc).RegisterRoutes(apiV1, adminV1)

	bookingRepo := booking.NewPGRepository(pool)
	resolver := booking.NewResolver(bookingRepo, logger)
	bookingSvc := booking.NewService(bookingRepo, resolver, ledgerSvc, petSvc, petSvc, txRunner, logger)
	booking.NewHandler(bookingSvc).RegisterRoutes(apiV1, adminV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
