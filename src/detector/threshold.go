package detector

import (
	"fmt"

	"telemetry-anomaly-monitor/src/types"
	"telemetry-anomaly-monitor/src/utils"
)

func (e *Engine) temperatureBreaches(records []types.StructuredRecord) []types.Anomaly {
	var out []types.Anomaly
	for _, r := range records {
		if r.Temperature > e.thresholds.TempHigh {
			out = append(out, types.Anomaly{
				Timestamp: r.Timestamp,
				Kind:      types.THRESHOLD_BREACH_TEMP,
				Severity:  types.CRITICAL,
				Description: fmt.Sprintf("Temperature %.2f°C exceeded threshold of %s°C.",
					r.Temperature, utils.FormatFloat(e.thresholds.TempHigh)),
			})
		}
	}
	return out
}

func (e *Engine) voltageBreaches(records []types.StructuredRecord) []types.Anomaly {
	var out []types.Anomaly
	for _, r := range records {
		if r.Voltage > e.thresholds.VoltageHigh || r.Voltage < e.thresholds.VoltageLow {
			out = append(out, types.Anomaly{
				Timestamp:   r.Timestamp,
				Kind:        types.THRESHOLD_BREACH_VOLTAGE,
				Severity:    types.CRITICAL,
				Description: fmt.Sprintf("Voltage %.2fV was outside the normal range.", r.Voltage),
			})
		}
	}
	return out
}
