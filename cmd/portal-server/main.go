package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-portal/internal/alert"
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/handler"
	"campus-portal/internal/middleware"
	"campus-portal/internal/observability"
	"campus-portal/internal/repository/postgres"
	"campus-portal/internal/security"
	"campus-portal/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting portal server")

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(connCtx); err != nil {
		slog.Error("database ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("connected to postgresql")

	var alerts *alert.Publisher
	if cfg.RabbitMQURL != "" {
		alerts, err = alert.NewPublisher(cfg.RabbitMQURL)
		if err != nil {
			slog.Error("failed to connect to alert broker", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer alerts.Close()
		slog.Info("connected to alert broker")
	} else {
		slog.Info("alert broker disabled")
	}

	accountRepo, err := postgres.NewAccountRepository(db)
	if err != nil {
		slog.Error("failed to init account repository", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sessionRepo, err := postgres.NewSessionRepository(db)
	if err != nil {
		slog.Error("failed to init session repository", slog.String("error", err.Error()))
		os.Exit(1)
	}
	activityRepo, err := postgres.NewActivityRepository(db)
	if err != nil {
		slog.Error("failed to init activity repository", slog.String("error", err.Error()))
		os.Exit(1)
	}
	attemptRepo, err := postgres.NewAttemptRepository(db)
	if err != nil {
		slog.Error("failed to init attempt repository", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authService := service.NewAuthService(accountRepo, sessionRepo, cfg.SessionLifetime)
	throttle := service.NewLoginThrottle(attemptRepo, cfg.ThrottleWindow, cfg.ThrottleMaxAttempts)
	auditor := service.NewActivityAuditor(activityRepo, cfg.AnomalyWindow, cfg.AnomalyThreshold)
	tokens := security.NewTokenManager(sessionRepo)

	gate := middleware.NewSecurityGate(sessionRepo, accountRepo, tokens, throttle, auditor, alerts, cfg.LoginPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startSessionCleanup(ctx, sessionRepo)
	go startAttemptPrune(ctx, throttle)
	go collectDBStats(ctx, db)
	slog.Info("background cleanup tasks started")

	authHandler := handler.NewAuthHandler(
		authService, throttle, tokens, auditor,
		cfg.SecureCookies, int(cfg.SessionLifetime.Seconds()),
	)
	profileHandler := handler.NewProfileHandler(accountRepo, auditor, cfg.UploadDir, cfg.MaxUploadBytes)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ClientContext())
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestValidator(&middleware.RequestValidatorConfig{
		SpecPath:  cfg.OpenAPISpecPath,
		SkipPaths: []string{"/health", "/metrics", "/login"},
	}, auditor))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db, alerts))
	r.Handle("/metrics", promhttp.Handler())

	r.Get(cfg.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./static/login.html")
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.Route("/api/v1", func(r chi.Router) {
		authLimiter := middleware.NewRateLimiter(ctx, 5, 10)
		apiLimiter := middleware.NewRateLimiter(ctx, 20, 50)

		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware())
			r.Use(gate.LoginGuard())
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(apiLimiter.Middleware())
			r.Use(gate.Protect(domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)
			r.Post("/profile/avatar", profileHandler.UploadAvatar)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("portal server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	time.Sleep(100 * time.Millisecond)

	slog.Info("server stopped gracefully")
}

// startSessionCleanup runs a background task to delete expired sessions
func startSessionCleanup(ctx context.Context, repo domain.SessionRepository) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session cleanup task")
			return
		case <-ticker.C:
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			count, err := repo.DeleteExpired(cleanupCtx)
			if err != nil {
				slog.Error("session cleanup failed", slog.String("error", err.Error()))
			} else {
				slog.Info("session cleanup completed",
					slog.Int64("sessions_deleted", count))
			}
			cancel()
		}
	}
}

// collectDBStats exports connection pool stats as gauges
func collectDBStats(ctx context.Context, db *sql.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			observability.DBConnectionsOpen.Set(float64(stats.OpenConnections))
			observability.DBConnectionsInUse.Set(float64(stats.InUse))
			observability.DBConnectionsIdle.Set(float64(stats.Idle))
		}
	}
}

// startAttemptPrune periodically drops login attempts that fell out of
// the throttle window. The block decision does not depend on this.
func startAttemptPrune(ctx context.Context, throttle *service.LoginThrottle) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping attempt prune task")
			return
		case <-ticker.C:
			pruneCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			count, err := throttle.Prune(pruneCtx)
			if err != nil {
				slog.Error("attempt prune failed", slog.String("error", err.Error()))
			} else {
				slog.Info("attempt prune completed",
					slog.Int64("attempts_deleted", count))
			}
			cancel()
		}
	}
}
