package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prestalab/portal/internal/config"
	"prestalab/portal/internal/handler"
	"prestalab/portal/internal/repository"
	"prestalab/portal/internal/service"
	"prestalab/portal/internal/service/gateway"
	"prestalab/portal/internal/session"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_failed", "error", err.Error())
		os.Exit(1)
	}
	if cfg.ConfigPath != "" {
		slog.Info("config_loaded", "path", cfg.ConfigPath)
	}

	// 2. Setup join store
	ctx := context.Background()
	var joins service.JoinStore
	if cfg.DatabaseURL != "" {
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			slog.Error("database_config_failed", "error", err.Error())
			os.Exit(1)
		}
		poolCfg.MaxConns = 10
		poolCfg.MaxConnIdleTime = 5 * time.Minute

		dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			slog.Error("database_connect_failed", "error", err.Error())
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			slog.Error("database_ping_failed", "error", err.Error())
			os.Exit(1)
		}
		repo := repository.NewJoinRepository(dbPool)
		if err := repo.EnsureSchema(ctx); err != nil {
			slog.Error("database_schema_failed", "error", err.Error())
			os.Exit(1)
		}
		joins = repo
		slog.Info("join_store", "kind", "postgres")
	} else {
		joins = repository.NewMemoryJoins()
		slog.Warn("join_store", "kind", "memory", "reason", "DATABASE_URL not set")
	}

	// 3. Setup Logic
	gw := gateway.NewClient(gateway.Config{URL: cfg.Gateway.URL, Timeout: cfg.Gateway.Timeout})
	names := cfg.Gateway.Services

	auth := service.NewAuthService(gw, names.Auth)
	catalog := service.NewCatalogService(gw, names.Catalog)
	notis := service.NewNotificationService(gw, names.Notifications)
	svc := handler.Services{
		Auth:          auth,
		Catalog:       catalog,
		Waitlist:      service.NewWaitlistService(gw, names.Waitlist, catalog, joins, cfg.HydrateConcurrency),
		Fines:         service.NewFineService(gw, names.Fines),
		Notifications: notis,
		Profile:       service.NewProfileService(auth, notis),
		Suggestions:   service.NewSuggestionService(gw, names.Suggestions),
		Reports:       service.NewReportService(gw, names.Reports),
		Admin:         service.NewAdminService(auth, catalog),
	}

	store := session.New(
		session.NewCookieStore([]byte(cfg.Session.Key), cfg.Session.SecureCookies),
		auth,
		cfg.AdminEmails,
	)

	h := handler.NewHandler(svc, store, handler.Options{
		CSRFKey:       []byte(cfg.Session.CSRFKey),
		SecureCookies: cfg.Session.SecureCookies,
		Sedes:         cfg.Sedes,
		PageSize:      cfg.PageSize,
	})

	// 4. Setup Server
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Run Server with Graceful Shutdown
	go func() {
		slog.Info("server_starting", "port", cfg.ServerPort, "gateway", cfg.Gateway.URL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server_failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("server_stopping")

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server_forced_shutdown", "error", err.Error())
		return
	}

	slog.Info("server_exited")
}
