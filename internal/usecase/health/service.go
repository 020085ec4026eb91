package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means searches still work but an optional component is down.
	Degraded Status = "degraded"
	// Unhealthy means the database cannot be reached.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultTimeout bounds each component ping.
const DefaultTimeout = 2 * time.Second

// Pinger is satisfied by the postgres pool and the redis store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type component struct {
	name     string
	pinger   Pinger
	critical bool
}

// Service pings the database and, when configured, the result cache.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service. cache can be nil when the result cache is disabled.
func New(db, cache Pinger) *Service {
	s := &Service{
		components: []component{{name: "database", pinger: db, critical: true}},
		timeout:    DefaultTimeout,
	}
	if cache != nil {
		s.components = append(s.components, component{name: "cache", pinger: cache})
	}
	return s
}

// WithTimeout overrides the per-component ping timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check pings every component concurrently.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.components))

	var g errgroup.Group
	for i, c := range s.components {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results[i] = CheckOK
			if err := c.pinger.Ping(pctx); err != nil {
				results[i] = CheckError
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.components))}
	for i, c := range s.components {
		report.Checks[c.name] = results[i]
		if results[i] == CheckOK {
			continue
		}
		if c.critical {
			report.Status = Unhealthy
		} else if report.Status == Healthy {
			report.Status = Degraded
		}
	}
	return report
}
