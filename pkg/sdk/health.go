package finder

import (
	"context"

	healthuc "github.com/kailas-cloud/facilityfinder/internal/usecase/health"
)

// HealthStatus is a point-in-time view of the client's dependencies.
type HealthStatus struct {
	// Status is "ok" or "error"; the embedded client has no cache, so it is never "degraded".
	Status string
	// Checks maps a component name ("database") to "ok" or "error".
	Checks map[string]string
}

// OK reports whether every dependency answered.
func (h HealthStatus) OK() bool { return h.Status == string(healthuc.Healthy) }

// Health pings the database within the default check timeout.
func (c *Client) Health(ctx context.Context) HealthStatus {
	r := c.healthSvc.Check(ctx)
	h := HealthStatus{Status: string(r.Status), Checks: make(map[string]string, len(r.Checks))}
	for name, res := range r.Checks {
		h.Checks[name] = string(res)
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
