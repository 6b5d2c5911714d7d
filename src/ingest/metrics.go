package ingest

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	LinesReceived prometheus.Counter
	RecordsStored prometheus.Counter
	ParseErrors   *prometheus.CounterVec
	SinkErrors    *prometheus.CounterVec
	IdleTicks     prometheus.Counter
	State         prometheus.Gauge
}

// NewMetrics builds the ingestion metrics and registers them with reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_lines_received_total",
			Help: "Non-empty lines received from the device link.",
		}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_records_stored_total",
			Help: "Parsed readings appended to the structured store.",
		}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_parse_errors_total",
			Help: "Lines that could not be turned into a reading, by kind.",
		}, []string{"kind"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_sink_write_errors_total",
			Help: "Failed appends, by sink.",
		}, []string{"sink"}),
		IdleTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_source_idle_ticks_total",
			Help: "Read timeouts with no complete line.",
		}),
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_ingest_state",
			Help: "Ingestion state: 0 connecting, 1 running, 2 stopped, 3 failed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.LinesReceived, m.RecordsStored, m.ParseErrors, m.SinkErrors, m.IdleTicks, m.State)
	}

	return m
}
