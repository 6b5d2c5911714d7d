package store

import (
	"context"
	"log/slog"

	"telemetry-anomaly-monitor/src/types"
)

// SlogRawLog sends the audit trail to a structured logger. The Lambda
// ingestion path uses it so raw lines land in the function's log stream.
type SlogRawLog struct {
	Log *slog.Logger
}

func (l SlogRawLog) Append(ctx context.Context, rec types.RawRecord) error {
	l.Log.InfoContext(ctx, "raw line",
		"arrival", types.FormatTime(rec.ArrivalTimestamp),
		"line", rec.RawLine,
	)
	return nil
}

type SlogErrorLog struct {
	Log *slog.Logger
}

func (l SlogErrorLog) Append(ctx context.Context, rec types.ParseErrorRecord) error {
	l.Log.WarnContext(ctx, "PARSE_ERROR",
		"timestamp", types.FormatTime(rec.Timestamp),
		"line", rec.RawLine,
		"reason", rec.Reason,
	)
	return nil
}
