// Package workflows connects processes to Temporal, which runs the worker
// provisioning saga when PROVISIONING_MODE=temporal.
package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/blueledger/blueledger/pkg/logger"
)

const instrumentationName = "github.com/blueledger/blueledger/pkg/workflows"

// Options selects the Temporal frontend and namespace.
type Options struct {
	HostPort  string
	Namespace string
	// Identity labels this process in workflow history; defaults to the SDK's pid@host.
	Identity string
}

// TemporalClient is a Temporal client carrying the tracing interceptor and
// the OTel metrics handler. Workers created from it inherit both, so a
// workflow started from an HTTP request continues that request's trace.
type TemporalClient struct {
	client.Client
}

// NewTemporalClient dials the frontend. Close it on shutdown.
func NewTemporalClient(ctx context.Context, o Options, log logger.Logger) (*TemporalClient, error) {
	tracing, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: otel.Tracer(instrumentationName),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal tracing interceptor: %w", err)
	}

	c, err := client.DialContext(ctx, client.Options{
		HostPort:       o.HostPort,
		Namespace:      o.Namespace,
		Identity:       o.Identity,
		Logger:         temporallog.NewStructuredLogger(log.With("component", "temporal").ToSlog()),
		Interceptors:   []interceptor.ClientInterceptor{tracing},
		MetricsHandler: temporalotel.NewMetricsHandler(temporalotel.MetricsHandlerOptions{Meter: otel.Meter(instrumentationName)}),
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", o.HostPort, err)
	}
	log.Info("temporal connected", "host_port", o.HostPort, "namespace", o.Namespace)
	return &TemporalClient{Client: c}, nil
}

// Ping satisfies httpx.HealthChecker.
func (tc *TemporalClient) Ping(ctx context.Context) error {
	_, err := tc.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

// NewWorker returns a worker polling taskQueue. Register workflows and
// activities on it before starting it.
func (tc *TemporalClient) NewWorker(taskQueue string) worker.Worker {
	return worker.New(tc.Client, taskQueue, worker.Options{})
}

// RunWorker starts w and stops it once ctx ends.
func RunWorker(ctx context.Context, w worker.Worker) error {
	if err := w.Start(); err != nil {
		return fmt.Errorf("start temporal worker: %w", err)
	}
	<-ctx.Done()
	w.Stop()
	return nil
}
