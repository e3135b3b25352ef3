package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"payday/internal/domain/audit"
	"payday/internal/domain/dispatch"
	"payday/internal/domain/payroll"
	"payday/internal/payslip"
	"payday/internal/platform/config"
	"payday/internal/platform/crypto"
	"payday/internal/platform/db"
	"payday/internal/platform/email"
	"payday/internal/platform/jobs"
	"payday/internal/platform/metrics"
	"payday/internal/transport/http/api"
	audithandler "payday/internal/transport/http/handlers/audit"
	payrollhandler "payday/internal/transport/http/handlers/payroll"
	"payday/internal/transport/http/middleware"
)

const maxBodyBytes = 1 << 20

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	collector := metrics.New()
	store := payroll.NewStore(pool)
	service := payroll.NewService(store, cfg.RunWorkers)

	cryptoService, err := crypto.New(cfg.PayslipEncryptionKey)
	if err != nil {
		slog.Error("payslip encryption key invalid", "err", err)
		os.Exit(1)
	}
	renderer := payslip.NewPDFRenderer()
	cache := payslip.NewCache(cfg.PayslipDir, cryptoService)

	mailer := email.New(cfg)
	dispatcher := dispatch.New(store, renderer, mailer, cfg.EmailFrom, collector)

	jobsService := jobs.New(jobs.NewPgRunLog(pool), cfg.JobQueueSize, cfg.JobMaxAttempts, cfg.JobRetryBackoff)
	jobsService.Start(ctx)

	auditService := audit.New(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(maxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		payrollHandler := payrollhandler.NewHandler(service, renderer, cache, dispatcher, jobsService, auditService, collector)
		payrollHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(auditService)
		auditHandler.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown failed", "err", err)
		}
	}()

	slog.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
