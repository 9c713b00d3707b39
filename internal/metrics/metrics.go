package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushgatewayEnv names the Pushgateway used when --pushgateway is not set.
const PushgatewayEnv = "PROXCLI_PUSHGATEWAY_URL"

const namespace = "proxcli"

// Result label values.
const (
	ResultSuccess = "success"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Recorder collects metrics of one CLI run. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	entityOps      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastRun        *prometheus.GaugeVec
	failedEntities *prometheus.GaugeVec
	phaseTotal     *prometheus.CounterVec
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.entityOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stack",
			Name:      "entity_operations_total",
			Help:      "Entity operations performed by apply and destroy, by kind, action and result",
		},
		[]string{"stack", "kind", "action", "result"},
	)
	r.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stack",
			Name:      "run_duration_seconds",
			Help:      "Duration of apply and destroy runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
		[]string{"stack", "operation"},
	)
	r.lastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stack",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last apply or destroy run",
		},
		[]string{"stack", "operation"},
	)
	r.failedEntities = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stack",
			Name:      "failed_entities",
			Help:      "Number of entities that failed in the last run",
		},
		[]string{"stack", "operation"},
	)
	r.phaseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stack",
			Name:      "apply_phases_total",
			Help:      "Apply phases executed, by phase",
		},
		[]string{"stack", "phase"},
	)

	r.registry.MustRegister(r.entityOps, r.runDuration, r.lastRun, r.failedEntities, r.phaseTotal)
	return r
}

// Registry returns the registry holding the run's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordEntity counts one entity operation.
func (r *Recorder) RecordEntity(stack, kind, action, result string) {
	if r == nil {
		return
	}
	r.entityOps.WithLabelValues(stack, kind, action, result).Inc()
}

// RecordPhase counts one executed apply phase.
func (r *Recorder) RecordPhase(stack, phase string) {
	if r == nil {
		return
	}
	r.phaseTotal.WithLabelValues(stack, phase).Inc()
}

// RecordRun records the duration and failure count of an apply or destroy.
func (r *Recorder) RecordRun(stack, operation string, duration time.Duration, failed int) {
	if r == nil {
		return
	}
	r.runDuration.WithLabelValues(stack, operation).Observe(duration.Seconds())
	r.lastRun.WithLabelValues(stack, operation).SetToCurrentTime()
	r.failedEntities.WithLabelValues(stack, operation).Set(float64(failed))
}

// Push sends all metrics to the Pushgateway at url, grouped by job.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if r == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
