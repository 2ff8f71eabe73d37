// Package app opens the infrastructure shared by the api and worker
// processes and hands it to every bounded context.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/cache"
	"github.com/blueledger/blueledger/pkg/config"
	"github.com/blueledger/blueledger/pkg/database"
	"github.com/blueledger/blueledger/pkg/events"
	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/livequery"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/telemetry"
	"github.com/blueledger/blueledger/pkg/workflows"
)

// Process names the binary opening the application. The api runs the outbox
// forwarder; the worker consumes events in its own consumer group.
type Process string

const (
	ProcessAPI    Process = "api"
	ProcessWorker Process = "worker"
)

// Application holds shared infrastructure dependencies for all services.
//
// Logging: Logger is backed by a trace-aware handler. Use the context methods
// and trace_id, span_id, request_id, uid and company_id are added for you:
//
//	a.Logger.InfoContext(ctx, "product restocked", "product_id", id)
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	Live           livequery.Bus
	TemporalClient *workflows.TemporalClient // nil unless PROVISIONING_MODE=temporal
	SessionStore   *auth.RedisStore
	Tokens         *auth.TokenIssuer
	LedgerMetrics  *telemetry.LedgerMetrics

	closers []func() error
}

// Open connects everything p needs. On error, whatever was already opened is
// closed again.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger, p Process) (_ *Application, err error) {
	a := &Application{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
		}
	}()

	a.Db, err = database.NewPool(ctx, cfg.DatabaseURL, log, database.WithTxRetries(cfg.LedgerTxRetries))
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.onClose(func() error { a.Db.Close(); return nil })

	busOpt := events.WithForwarder()
	if p == ProcessWorker {
		busOpt = events.WithConsumerGroup(cfg.ServiceName + "-worker")
	}
	if a.EventBus, err = events.NewEventBus(cfg, log, busOpt); err != nil {
		return nil, fmt.Errorf("event bus: %w", err)
	}
	a.onClose(a.EventBus.Close)

	a.Redis, err = cache.NewRedisClient(ctx, cache.RedisOptions{
		URL:             cfg.RedisURL,
		Name:            fmt.Sprintf("%s-%s", cfg.ServiceName, p),
		PoolSize:        cfg.RedisPoolSize,
		Timeout:         cfg.RedisTimeout,
		ConnectAttempts: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.onClose(a.Redis.Close)
	a.Live = cache.NewNotifier(a.Redis)
	a.SessionStore = auth.NewSessionStore(a.Redis.Client(), []byte(cfg.SessionAuthKey), []byte(cfg.SessionEncryptionKey), cfg.IsProduction())

	if cfg.ProvisioningMode == config.ProvisioningTemporal {
		a.TemporalClient, err = workflows.NewTemporalClient(ctx, workflows.Options{
			HostPort:  cfg.TemporalHostPort,
			Namespace: cfg.TemporalNamespace,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("temporal: %w", err)
		}
		a.onClose(func() error { a.TemporalClient.Close(); return nil })
	}

	if a.Tokens, err = auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL); err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	if a.LedgerMetrics, err = telemetry.NewLedgerMetrics(otel.GetMeterProvider()); err != nil {
		return nil, fmt.Errorf("ledger metrics: %w", err)
	}
	return a, nil
}

func (a *Application) onClose(f func() error) {
	a.closers = append(a.closers, f)
}

// Close releases resources in reverse order of opening.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// HealthChecks lists the dependencies behind the readiness probe. Temporal
// only degrades the service: stock keeps moving while provisioning waits.
func (a *Application) HealthChecks() []httpx.Check {
	checks := []httpx.Check{
		{Name: "postgres", Checker: a.Db, Critical: true},
		{Name: "redis", Checker: a.Redis, Critical: true},
		{Name: "events", Checker: a.EventBus, Critical: true},
	}
	if a.TemporalClient != nil {
		checks = append(checks, httpx.Check{Name: "temporal", Checker: a.TemporalClient})
	}
	return checks
}
