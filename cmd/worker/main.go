package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/pkg/cache"
	"github.com/blueledger/blueledger/pkg/config"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/telemetry"
	"github.com/blueledger/blueledger/pkg/workflows"
	"github.com/blueledger/blueledger/services/account/application/provisioning"
	accountpg "github.com/blueledger/blueledger/services/account/infrastructure/persistence/postgres"
	inventorypg "github.com/blueledger/blueledger/services/inventory/infrastructure/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "worker")
	slog.SetDefault(log.ToSlog())

	if err := run(cfg, log); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

// run consumes domain events and, in temporal mode, executes provisioning
// workflows until SIGINT or SIGTERM. Closing the application waits for
// in-flight handlers.
func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer otelShutdown(context.WithoutCancel(ctx)) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer telemetry.SentryFlush()

	a, err := app.Open(ctx, cfg, log, app.ProcessWorker)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	g, gctx := errgroup.WithContext(ctx)
	if err := subscribe(gctx, g, a); err != nil {
		return err
	}
	if a.TemporalClient != nil {
		w := a.TemporalClient.NewWorker(cfg.ProvisioningTaskQueue)
		provisioning.Register(w, &provisioning.Activities{
			Identities: accountpg.NewIdentityStore(a.Db),
			Profiles:   accountpg.NewProfileRepository(a.Db, a.EventBus),
		})
		log.Info("provisioning worker started", "task_queue", cfg.ProvisioningTaskQueue)
		g.Go(func() error { return workflows.RunWorker(gctx, w) })
	}
	return g.Wait()
}

// subscribe attaches every handler to its topic. Handler failures that
// exhaust their retries are logged and reported until ctx ends.
func subscribe(ctx context.Context, g *errgroup.Group, a *app.Application) error {
	subs := &subscribers{
		products: inventorypg.NewProductRepository(a.Db, nil),
		cache:    cache.NewProductCache(a.Redis),
		sessions: a.SessionStore,
		log:      a.Logger,
	}

	handlers := subs.handlers()
	topics := make([]string, 0, len(handlers))
	for topic, h := range handlers {
		errCh, err := a.EventBus.Subscribe(ctx, topic, h)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		topics = append(topics, topic)
		g.Go(func() error {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "event handler failed", "topic", topic, "error", err)
				telemetry.Capture(ctx, err, map[string]string{"topic": topic})
			}
			return nil
		})
	}

	slices.Sort(topics)
	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}
