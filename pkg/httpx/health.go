package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const probeTimeout = 2 * time.Second

// HealthChecker is anything with a cheap connectivity probe: the Postgres
// pool, Redis, the event bus and the Temporal client.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Check names a dependency for the readiness report. When a Critical check
// fails the service is "down" and answers 503. Other failures only mark it
// "degraded": the ledger keeps selling while Temporal is unreachable, for
// example.
type Check struct {
	Name     string
	Checker  HealthChecker
	Critical bool
}

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthReport is the body of the readiness endpoint.
type HealthReport struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// LiveHandler reports that the process is serving requests.
func LiveHandler(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthHandler probes every check concurrently, each bounded by 2s.
// Checks with a nil Checker are skipped.
func HealthHandler(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := probe(r.Context(), checks)
		status := http.StatusOK
		if report.Status == "down" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, report)
	}
}

func probe(ctx context.Context, checks []Check) HealthReport {
	report := HealthReport{Status: "ok", Checks: make(map[string]CheckResult, len(checks))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range checks {
		if c.Checker == nil {
			continue
		}
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			start := time.Now()
			err := c.Checker.Ping(pctx)
			res := CheckResult{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Status, res.Error = "unreachable", err.Error()
				switch {
				case c.Critical:
					report.Status = "down"
				case report.Status == "ok":
					report.Status = "degraded"
				}
			}
			report.Checks[c.Name] = res
			return nil
		})
	}
	_ = g.Wait()
	return report
}
