package store

import (
	"context"
	"sort"

	"telemetry-anomaly-monitor/src/types"
)

// RecordWriter appends parsed readings. Only the ingestion service writes.
type RecordWriter interface {
	Append(ctx context.Context, rec types.StructuredRecord) error
}

// HistoryReader returns every stored reading, oldest first, ties in insertion order.
type HistoryReader interface {
	ReadAllOrderedByTime(ctx context.Context) ([]types.StructuredRecord, error)
}

type RawLog interface {
	Append(ctx context.Context, rec types.RawRecord) error
}

type ErrorLog interface {
	Append(ctx context.Context, rec types.ParseErrorRecord) error
}

// SortByTime orders records by timestamp in place, keeping the relative
// order of equal timestamps.
func SortByTime(records []types.StructuredRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
