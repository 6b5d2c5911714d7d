package detector

import (
	"fmt"
	"math"

	"telemetry-anomaly-monitor/src/types"
	"telemetry-anomaly-monitor/src/utils"
)

// rapidChanges compares each reading with the one before it; the first reading never fires.
func (e *Engine) rapidChanges(records []types.StructuredRecord) []types.Anomaly {
	var out []types.Anomaly
	for i := 1; i < len(records); i++ {
		delta := utils.GetChange(records[i-1].Temperature, records[i].Temperature)
		if math.Abs(delta) > e.thresholds.RateOfChange {
			out = append(out, types.Anomaly{
				Timestamp:   records[i].Timestamp,
				Kind:        types.RAPID_CHANGE_TEMP,
				Severity:    types.WARNING,
				Description: fmt.Sprintf("Temperature changed by %.2f°C, exceeding the rate-of-change threshold.", delta),
			})
		}
	}
	return out
}
