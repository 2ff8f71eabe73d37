package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	_ "github.com/blueledger/blueledger/docs/swagger"
	"github.com/blueledger/blueledger/migrations"
	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/config"
	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/migrator"
	"github.com/blueledger/blueledger/pkg/telemetry"
	accountApi "github.com/blueledger/blueledger/services/account/application/api"
	inventoryApi "github.com/blueledger/blueledger/services/inventory/application/api"
	messagingApi "github.com/blueledger/blueledger/services/messaging/application/api"
)

const shutdownGrace = 30 * time.Second

// @title					Blueledger API
// @version				1.0
// @description			Multi-tenant inventory and point-of-sale core.
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	slog.SetDefault(log.ToSlog())

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", "error", err)
		os.Exit(1)
	}
	log.Info("api stopped")
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer otelShutdown(context.WithoutCancel(ctx)) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer telemetry.SentryFlush()

	if cfg.AutoMigrate {
		if err := migrator.RunMigrations(ctx, cfg.DatabaseURL, migrations.FS); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}

	a, err := app.Open(ctx, cfg, log, app.ProcessAPI)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	if err := a.EventBus.StartForwarder(ctx); err != nil {
		return fmt.Errorf("outbox forwarder: %w", err)
	}

	serverCfg := httpx.ServerConfig{
		IsDevelopment:      cfg.Environment == config.EnvDevelopment,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestsPerMinute:  cfg.HTTPRequestsPerMinute,
		RequestTimeout:     cfg.HTTPRequestTimeout,
		MaxBodyBytes:       cfg.HTTPMaxBodyBytes,
	}
	r := httpx.NewRouter(serverCfg,
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
		logger.Middleware(log),
	)
	ready := httpx.HealthHandler(a.HealthChecks()...)
	r.Get("/health", ready)
	r.Get("/health/ready", ready)
	r.Get("/health/live", httpx.LiveHandler)
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, a)
	})

	srv := httpx.NewServer(cfg.HTTPAddr, r, serverCfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "provisioning", cfg.ProvisioningMode)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "grace", shutdownGrace)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// registerRoutes mounts all service routes under /api. The account context
// mounts first because its service resolves callers for everyone else.
func registerRoutes(r chi.Router, a *app.Application) {
	accounts := accountApi.AccountRoutes(r, a)
	authn := auth.Authenticated(a.SessionStore, a.Tokens, accounts.Account, a.Logger)

	inventoryApi.InventoryRoutes(r, a, authn)
	messagingApi.MessagingRoutes(r, a, authn)
}
