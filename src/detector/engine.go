package detector

import (
	"sort"

	"telemetry-anomaly-monitor/src/config"
	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

// Engine classifies a recorded history. It holds no state beyond its thresholds.
type Engine struct {
	thresholds config.Thresholds
}

func NewEngine(thresholds config.Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

func (e *Engine) Thresholds() config.Thresholds { return e.thresholds }

// Detect runs the four detectors over a time-ordered copy of records and
// returns their findings ordered by timestamp. Findings that share a
// timestamp keep detector order: temperature, voltage, rate of change, heartbeat.
func (e *Engine) Detect(records []types.StructuredRecord) []types.Anomaly {
	sorted := append([]types.StructuredRecord(nil), records...)
	store.SortByTime(sorted)

	var anomalies []types.Anomaly
	anomalies = append(anomalies, e.temperatureBreaches(sorted)...)
	anomalies = append(anomalies, e.voltageBreaches(sorted)...)
	anomalies = append(anomalies, e.rapidChanges(sorted)...)
	anomalies = append(anomalies, e.heartbeatLosses(sorted)...)

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Timestamp.Before(anomalies[j].Timestamp)
	})

	return anomalies
}
