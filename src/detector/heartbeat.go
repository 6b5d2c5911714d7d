package detector

import (
	"fmt"

	"telemetry-anomaly-monitor/src/types"
	"telemetry-anomaly-monitor/src/utils"
)

// heartbeatLosses fires on gaps strictly longer than the timeout.
func (e *Engine) heartbeatLosses(records []types.StructuredRecord) []types.Anomaly {
	var out []types.Anomaly
	for i := 1; i < len(records); i++ {
		gap := utils.GetTimeDiff(records[i-1].Timestamp, records[i].Timestamp)
		if gap > e.thresholds.HeartbeatTimeout {
			out = append(out, types.Anomaly{
				Timestamp:   records[i].Timestamp,
				Kind:        types.HEARTBEAT_LOSS,
				Severity:    types.CRITICAL,
				Description: fmt.Sprintf("No data received for %.1f seconds. Device may be offline.", gap.Seconds()),
			})
		}
	}
	return out
}
