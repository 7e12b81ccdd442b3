package main

import (
	"context"
	"encoding/json"
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

	"github.com/pediacare/api/internal/config"
	"github.com/pediacare/api/internal/domain/appointment"
	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/domain/dashboard"
	"github.com/pediacare/api/internal/domain/disease"
	"github.com/pediacare/api/internal/domain/identity"
	"github.com/pediacare/api/internal/domain/message"
	"github.com/pediacare/api/internal/domain/navigation"
	"github.com/pediacare/api/internal/domain/payment"
	"github.com/pediacare/api/internal/domain/prediction"
	"github.com/pediacare/api/internal/domain/testimonial"
	"github.com/pediacare/api/internal/platform/auth"
	"github.com/pediacare/api/internal/platform/blobstore"
	"github.com/pediacare/api/internal/platform/db"
	"github.com/pediacare/api/internal/platform/giphy"
	"github.com/pediacare/api/internal/platform/middleware"
	"github.com/pediacare/api/internal/platform/paystack"
	"github.com/pediacare/api/internal/platform/realtime"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pediacare-server",
		Short: "Pediatric telehealth API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

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

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the disease catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

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

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			var diseases []*disease.Disease
			if err := json.Unmarshal(data, &diseases); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}

			repo := disease.NewRepo(pool)
			for _, d := range diseases {
				if err := repo.Insert(ctx, d); err != nil {
					return fmt.Errorf("insert %q: %w", d.NameFr, err)
				}
			}

			total, err := repo.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d disease(s); catalog now holds %d.\n", len(diseases), total)
			return nil
		},
	}
	cmd.Flags().String("file", "./seed/diseases.json", "Path to the disease seed file")
	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Blob storage backend
	var blobs blobstore.BlobStore
	switch cfg.BlobBackend {
	case "s3":
		blobs, err = blobstore.NewS3BlobStore(ctx, cfg.BlobS3Bucket, cfg.BlobS3Region)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize s3 blob store")
		}
		logger.Info().Str("bucket", cfg.BlobS3Bucket).Msg("using s3 blob storage")
	default:
		blobs = blobstore.NewInMemoryBlobStore()
		logger.Warn().Msg("using in-memory blob storage; uploads are lost on restart")
	}

	// Platform pieces
	issuer := auth.NewTokenIssuer(cfg.JWTSecret,
		time.Duration(cfg.AccessTokenTTL)*time.Minute,
		time.Duration(cfg.RefreshTokenTTL)*time.Hour)
	hub := realtime.NewHub()
	paystackClient := paystack.NewClient(cfg.PaystackSecret, cfg.PaystackBaseURL)
	giphyClient := giphy.NewClient(cfg.GiphyAPIKey, cfg.GiphyBaseURL)

	// Repositories
	profileRepo := identity.NewProfileRepo(pool)
	doctorRepo := identity.NewDoctorRepo(pool)
	childRepo := child.NewRepo(pool)
	diseaseRepo := disease.NewRepo(pool)
	predictionRepo := prediction.NewRepo(pool)
	appointmentRepo := appointment.NewRepo(pool)
	paymentRepo := payment.NewRepo(pool)
	messageRepo := message.NewRepo(pool)
	testimonialRepo := testimonial.NewRepo(pool)
	dashboardRepo := dashboard.NewRepo(pool)

	// Services
	identitySvc := identity.NewService(profileRepo, doctorRepo, issuer, hub, logger)
	childSvc := child.NewService(childRepo, blobs, logger)
	diseaseSvc := disease.NewService(diseaseRepo)
	predictionSvc := prediction.NewService(predictionRepo, prediction.NewMockEngine(diseaseSvc), childSvc, diseaseSvc, logger)
	appointmentSvc := appointment.NewService(appointmentRepo, childSvc, doctorRepo, hub, logger)
	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	paymentSvc := payment.NewService(paymentRepo, appointmentSvc, paystackClient, runTx, logger)
	messageSvc := message.NewService(messageRepo, profileRepo, blobs, hub, logger)
	navigationSvc := navigation.NewService(childSvc, logger)
	testimonialSvc := testimonial.NewService(testimonialRepo, profileRepo, logger)
	dashboardSvc := dashboard.NewService(dashboardRepo, predictionSvc, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(auth.Middleware(issuer, identitySvc, logger))

	e.GET("/health", db.HealthHandler(pool))

	public := e.Group("/api/v1")
	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	public.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Domain routes
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)
	child.NewHandler(childSvc).RegisterRoutes(api)
	disease.NewHandler(diseaseSvc).RegisterRoutes(api)
	prediction.NewHandler(predictionSvc).RegisterRoutes(api)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(api)
	payment.NewHandler(paymentSvc).RegisterRoutes(api)
	message.NewHandler(messageSvc).RegisterRoutes(api)
	navigation.NewHandler(navigationSvc).RegisterRoutes(public, api)
	testimonial.NewHandler(testimonialSvc).RegisterRoutes(public, api)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(api)
	blobstore.NewHandler(blobs).RegisterRoutes(api)
	giphy.NewHandler(giphyClient, logger).RegisterRoutes(api)

	// Realtime: event stream plus video call signaling gated by the
	// appointment service.
	realtime.NewHandler(hub).RegisterRoutes(api)
	realtime.NewSignalHandler(realtime.NewSignalHub(), appointmentSvc).RegisterRoutes(api)

	// Consultation reminder sweep
	reminderScheduler := appointment.StartReminderScheduler(appointmentSvc,
		time.Duration(cfg.ReminderInterval)*time.Minute, logger)
	defer reminderScheduler.Stop()

	// Start and wait for shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server started")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
