package dispatcher

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/inkwell/internal/dispatcher/handler"
)

// PrometheusMetrics exports dispatch counters and latencies.
type PrometheusMetrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	panics     *prometheus.CounterVec
}

// NewPrometheusMetrics creates the dispatcher collectors and registers them
// on reg. Collectors already registered by another dispatcher are shared.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "dispatcher",
			Name:      "actions_total",
			Help:      "Dispatched actions by command ID and result status.",
		}, []string{"action", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "inkwell",
			Subsystem: "dispatcher",
			Name:      "action_duration_seconds",
			Help:      "Handler latency by command ID.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"action"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "dispatcher",
			Name:      "panics_total",
			Help:      "Recovered handler panics by command ID.",
		}, []string{"action"}),
	}

	var err error
	if m.dispatches, err = register(reg, m.dispatches); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.panics, err = register(reg, m.panics); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// RecordDispatch records a dispatch event.
func (m *PrometheusMetrics) RecordDispatch(actionName string, duration time.Duration, status handler.ResultStatus) {
	m.dispatches.WithLabelValues(actionName, status.String()).Inc()
	m.duration.WithLabelValues(actionName).Observe(duration.Seconds())
}

// RecordPanic records a panic recovery.
func (m *PrometheusMetrics) RecordPanic(actionName string) {
	m.panics.WithLabelValues(actionName).Inc()
}
