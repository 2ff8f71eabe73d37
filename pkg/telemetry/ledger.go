package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const ledgerMeterName = "github.com/blueledger/blueledger/ledger"

// LedgerMetrics counts units moved through the stock ledger. A nil
// *LedgerMetrics records nothing.
type LedgerMetrics struct {
	restocked metric.Int64Counter
	sold      metric.Int64Counter
	rejected  metric.Int64Counter
}

// NewLedgerMetrics registers the ledger counters on mp. Pass nil to use the
// global meter provider installed by Setup.
func NewLedgerMetrics(mp metric.MeterProvider) (*LedgerMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(ledgerMeterName)

	restocked, err := meter.Int64Counter("ledger.restock.units",
		metric.WithDescription("Units added by committed restocks"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, fmt.Errorf("ledger.restock.units: %w", err)
	}
	sold, err := meter.Int64Counter("ledger.sell.units",
		metric.WithDescription("Units removed by committed sales"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, fmt.Errorf("ledger.sell.units: %w", err)
	}
	rejected, err := meter.Int64Counter("ledger.sell.rejected",
		metric.WithDescription("Sales rejected before commit, by reason"))
	if err != nil {
		return nil, fmt.Errorf("ledger.sell.rejected: %w", err)
	}
	return &LedgerMetrics{restocked: restocked, sold: sold, rejected: rejected}, nil
}

// Restocked records a committed restock.
func (m *LedgerMetrics) Restocked(ctx context.Context, units int64) {
	if m == nil {
		return
	}
	m.restocked.Add(ctx, units)
}

// Sold records a committed sale.
func (m *LedgerMetrics) Sold(ctx context.Context, units int64) {
	if m == nil {
		return
	}
	m.sold.Add(ctx, units)
}

// SellRejected records a sale that did not commit.
func (m *LedgerMetrics) SellRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
