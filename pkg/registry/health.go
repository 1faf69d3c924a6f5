package registry

import (
	"context"
	"time"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

const degradedLatency = 5 * time.Second

// HealthChecker probes every package through the executor and rolls the
// results into per-package health scores.
type HealthChecker struct {
	extractor SchemaExtractor
	packages  store.PackagesStore
	health    store.HealthStore

	now func() time.Time
}

// NewHealthChecker creates a health checker.
func NewHealthChecker(extractor SchemaExtractor, packages store.PackagesStore, health store.HealthStore) *HealthChecker {
	return &HealthChecker{
		extractor: extractor,
		packages:  packages,
		health:    health,
		now:       time.Now,
	}
}

// HealthResult summarizes one sweep.
type HealthResult struct {
	Checked  int
	Passing  int
	Degraded int
	Failing  int
}

// Run sweeps every package once. Individual probe failures are recorded,
// not fatal.
func (h *HealthChecker) Run(ctx context.Context) (*HealthResult, error) {
	names, err := h.packages.AllPackageNames()
	if err != nil {
		return nil, err
	}

	result := &HealthResult{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		pkg, err := h.packages.FindPackage(name)
		if err != nil {
			continue
		}

		check := h.probe(ctx, pkg)
		result.Checked++
		switch check.Status {
		case model.HealthStatusPassing:
			result.Passing++
		case model.HealthStatusDegraded:
			result.Degraded++
		default:
			result.Failing++
		}

		if err := h.health.SaveHealthCheck(check); err != nil {
			continue
		}
		h.rollScore(pkg)
	}
	return result, nil
}

// probe runs a schema extraction as a liveness check. A slow but correct
// answer is degraded; an error is failing.
func (h *HealthChecker) probe(ctx context.Context, pkg *model.Package) model.HealthCheck {
	start := h.now()
	_, err := h.extractor.ExtractSchemas(ctx, pkg.Name, pkg.Version)
	latency := h.now().Sub(start)

	check := model.HealthCheck{
		PackageID: pkg.PackageID,
		LatencyMs: latency.Milliseconds(),
	}
	switch {
	case err != nil:
		check.Status = model.HealthStatusFailing
		check.Error = err.Error()
	case latency > degradedLatency:
		check.Status = model.HealthStatusDegraded
	default:
		check.Status = model.HealthStatusPassing
	}
	return check
}

// rollScore recomputes a package's health score from its recent checks:
// passing counts full, degraded half.
func (h *HealthChecker) rollScore(pkg *model.Package) {
	history, err := h.health.HealthHistory(pkg.PackageID, 10)
	if err != nil || len(history) == 0 {
		return
	}
	points := 0
	for _, check := range history {
		switch check.Status {
		case model.HealthStatusPassing:
			points += 2
		case model.HealthStatusDegraded:
			points++
		}
	}
	score := points * 100 / (len(history) * 2)
	_ = h.packages.SetHealthScore(pkg.Name, score)
}
