package detector

import (
	"context"
	"errors"
	"fmt"

	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

// Run loads the full history and classifies it. A read failure is always a
// *types.MissingHistoryError and yields no anomalies.
func Run(ctx context.Context, history store.HistoryReader, engine *Engine) ([]types.StructuredRecord, []types.Anomaly, error) {
	records, err := history.ReadAllOrderedByTime(ctx)
	if err != nil {
		var missing *types.MissingHistoryError
		if !errors.As(err, &missing) {
			err = &types.MissingHistoryError{Store: fmt.Sprintf("%T", history), Err: err}
		}
		return nil, nil, err
	}

	return records, engine.Detect(records), nil
}
