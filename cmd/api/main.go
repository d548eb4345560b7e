package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/brclinics/clinic-platform/internal/api/router"
	"github.com/brclinics/clinic-platform/internal/appointments"
	"github.com/brclinics/clinic-platform/internal/auth"
	"github.com/brclinics/clinic-platform/internal/catalog"
	"github.com/brclinics/clinic-platform/internal/clinics"
	appconfig "github.com/brclinics/clinic-platform/internal/config"
	"github.com/brclinics/clinic-platform/internal/dashboard"
	"github.com/brclinics/clinic-platform/internal/doctors"
	"github.com/brclinics/clinic-platform/internal/finance"
	"github.com/brclinics/clinic-platform/internal/observability/metrics"
	"github.com/brclinics/clinic-platform/internal/patients"
	"github.com/brclinics/clinic-platform/internal/reminders"
	"github.com/brclinics/clinic-platform/internal/staff"
	"github.com/brclinics/clinic-platform/internal/storage"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, logout revocation disabled", "error", err)
			redisClient = nil
		}
	}

	schedMetrics := metrics.NewSchedulingMetrics(nil)

	// Repositories
	clinicsRepo := clinics.NewRepository(pool)
	usersRepo := auth.NewRepository(pool)
	appointmentsRepo := appointments.NewRepository(pool)
	doctorsRepo := doctors.NewRepository(pool)
	patientsRepo := patients.NewRepository(pool)
	staffRepo := staff.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	remindersRepo := reminders.NewRepository(pool)
	financeRepo := finance.NewRepository(pool)

	// Services
	sessions := auth.NewSessionStore(redisClient)
	userTokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	adminTokens := auth.NewTokenManager(cfg.AdminJWTSecret, cfg.TokenTTL)
	authService := auth.NewService(usersRepo, clinicsRepo, userTokens, adminTokens, sessions, logger)
	appointmentsService := appointments.NewService(appointmentsRepo, schedMetrics, logger)
	dashboardService := dashboard.NewService(pool, appointmentsRepo, remindersRepo)

	// Handlers
	routerCfg := &router.Config{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(authService, logger),
		AuthService:         authService,
		ClinicsHandler:      clinics.NewHandler(clinicsRepo, logger),
		ClinicsRepo:         clinicsRepo,
		AppointmentsHandler: appointments.NewHandler(appointmentsService, logger),
		DoctorsHandler:      doctors.NewHandler(doctorsRepo, logger),
		PatientsHandler:     patients.NewHandler(patientsRepo, logger),
		StaffHandler:        staff.NewHandler(staffRepo, logger),
		CatalogHandler:      catalog.NewHandler(catalogRepo, logger),
		RemindersHandler:    reminders.NewHandler(remindersRepo, logger),
		FinanceHandler:      finance.NewHandler(financeRepo, logger),
		DashboardHandler:    dashboard.NewHandler(dashboardService, logger),
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		LoginRateLimit:      cfg.LoginRateLimit,
		LoginRateWindow:     cfg.LoginRateWindow,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("stopped")
}
