package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the pacer.
type Metrics struct {
	triggers       *prometheus.CounterVec
	actionDuration prometheus.Histogram
	cooldown       prometheus.Gauge
	lastFired      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		triggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratelimd_triggers_total",
				Help: "Trigger attempts by outcome",
			},
			[]string{"outcome"},
		),
		actionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ratelimd_action_duration_seconds",
				Help:    "Wall-clock duration of the paced action",
				Buckets: prometheus.DefBuckets,
			},
		),
		cooldown: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ratelimd_cooldown_seconds",
				Help: "Configured cooldown period",
			},
		),
		lastFired: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ratelimd_last_fired_timestamp_seconds",
				Help: "Unix timestamp of the last permitted firing",
			},
		),
	}
	reg.MustRegister(m.triggers, m.actionDuration, m.cooldown, m.lastFired)
	return m
}

func (m *Metrics) SetCooldown(d time.Duration) {
	m.cooldown.Set(d.Seconds())
}

func (m *Metrics) RecordFired(at time.Time, actionDuration time.Duration) {
	m.triggers.WithLabelValues("fired").Inc()
	m.actionDuration.Observe(actionDuration.Seconds())
	m.lastFired.Set(float64(at.Unix()))
}

func (m *Metrics) RecordSuppressed() {
	m.triggers.WithLabelValues("suppressed").Inc()
}
