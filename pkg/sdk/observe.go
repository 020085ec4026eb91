package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/facilityfinder/internal/domain"
)

const metricsNamespace = "facilityfinder"

// Operation outcomes used as the "outcome" label.
const (
	outcomeOK          = "ok"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
	outcomeFailed      = "failed"
)

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, domain.ErrMissingParameter):
		return outcomeInvalid
	case domain.IsRetryable(err):
		return outcomeUnavailable
	default:
		return outcomeFailed
	}
}

type sdkMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	results    *prometheus.HistogramVec
	query      *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: metricsNamespace, Subsystem: "sdk", Name: name, Help: help}
	}
	hist := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		o := opts(name, help)
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.Namespace, Subsystem: o.Subsystem, Name: o.Name, Help: o.Help, Buckets: buckets,
		}, labels)
	}

	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts(opts(
			"operations_total", "SDK searches by operation and outcome.")), []string{"operation", "outcome"}),
		latency: hist("operation_duration_seconds", "End-to-end SDK search latency.",
			prometheus.DefBuckets, "operation"),
		results: hist("results_returned", "Facilities returned per successful search.",
			[]float64{0, 1, 5, 10, 30, 100, 500}, "operation"),
		query: hist("query_duration_seconds", "Database query latency by template.",
			prometheus.DefBuckets, "template", "status"),
	}
	for _, err := range []error{
		registerOrReuse(reg, &m.operations),
		registerOrReuse(reg, &m.latency),
		registerOrReuse(reg, &m.results),
		registerOrReuse(reg, &m.query),
	} {
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse swaps *c for an identical collector already in reg.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &are):
		return fmt.Errorf("finder: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("finder: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts SDK calls. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) queryDuration() *prometheus.HistogramVec {
	if o == nil || o.metrics == nil {
		return nil
	}
	return o.metrics.query
}

func (o *observer) observe(ctx context.Context, op string, start time.Time, results int, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	res := outcome(err)

	if m := o.metrics; m != nil {
		m.operations.WithLabelValues(op, res).Inc()
		m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
		if err == nil {
			m.results.WithLabelValues(op).Observe(float64(results))
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []slog.Attr{slog.String("op", op), slog.Duration("duration", elapsed)}
	switch res {
	case outcomeOK:
		o.logger.LogAttrs(ctx, slog.LevelDebug, "search completed", append(attrs, slog.Int("results", results))...)
	case outcomeInvalid:
		o.logger.LogAttrs(ctx, slog.LevelDebug, "search rejected", append(attrs, slog.Any("error", err))...)
	case outcomeUnavailable:
		o.logger.LogAttrs(ctx, slog.LevelWarn, "database unavailable", append(attrs, slog.Any("error", err))...)
	default:
		o.logger.LogAttrs(ctx, slog.LevelError, "search failed", append(attrs, slog.Any("error", err))...)
	}
}
