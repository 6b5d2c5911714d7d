package detector

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"telemetry-anomaly-monitor/src/types"
)

// RunMetrics describes the last batch run. The detector is short-lived, so
// these are pushed to a Pushgateway rather than scraped.
type RunMetrics struct {
	registry    *prometheus.Registry
	Anomalies   *prometheus.GaugeVec
	Records     prometheus.Gauge
	Duration    prometheus.Gauge
	LastSuccess prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		Anomalies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "telemetry_detector_anomalies",
			Help: "Anomalies found by the last run, by kind.",
		}, []string{"kind"}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_detector_records",
			Help: "Readings analysed by the last run.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_detector_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_detector_last_success_timestamp_seconds",
			Help: "Unix time of the last completed run.",
		}),
	}
	m.registry.MustRegister(m.Anomalies, m.Records, m.Duration, m.LastSuccess)

	for _, kind := range []types.AnomalyKind{
		types.THRESHOLD_BREACH_TEMP, types.THRESHOLD_BREACH_VOLTAGE, types.RAPID_CHANGE_TEMP, types.HEARTBEAT_LOSS,
	} {
		m.Anomalies.WithLabelValues(kind.String())
	}

	return m
}

func (m *RunMetrics) Observe(records int, anomalies []types.Anomaly, took time.Duration, now time.Time) {
	counts := map[types.AnomalyKind]int{}
	for _, a := range anomalies {
		counts[a.Kind]++
	}
	for _, kind := range []types.AnomalyKind{
		types.THRESHOLD_BREACH_TEMP, types.THRESHOLD_BREACH_VOLTAGE, types.RAPID_CHANGE_TEMP, types.HEARTBEAT_LOSS,
	} {
		m.Anomalies.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
	m.Records.Set(float64(records))
	m.Duration.Set(took.Seconds())
	m.LastSuccess.Set(float64(now.Unix()))
}

func (m *RunMetrics) Gatherer() prometheus.Gatherer { return m.registry }

// Push replaces this job's metric group on the Pushgateway at url.
func (m *RunMetrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.registry).PushContext(ctx)
}
