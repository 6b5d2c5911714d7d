package kinesis

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"telemetry-anomaly-monitor/src/ingest"
	"telemetry-anomaly-monitor/src/store"
)

// Handler ingests wire-format lines forwarded by a device gateway onto a
// Kinesis stream. Each record may carry several newline-separated lines;
// they all share the record's arrival time.
type Handler struct {
	pipeline *ingest.Pipeline
	log      *slog.Logger
	now      func() time.Time
}

func NewHandler(records store.RecordWriter, log *slog.Logger, metrics *ingest.Metrics) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		pipeline: ingest.NewPipeline(records, store.SlogRawLog{Log: log}, store.SlogErrorLog{Log: log}, log, metrics),
		log:      log,
		now:      time.Now,
	}
}

// Handle never fails the batch: bad lines go to the error log and sink
// failures are logged, so Kinesis does not redeliver the shard.
func (h *Handler) Handle(ctx context.Context, event events.KinesisEvent) error {
	for _, record := range event.Records {
		arrival := record.Kinesis.ApproximateArrivalTimestamp.Time
		if arrival.IsZero() {
			arrival = h.now()
		}
		at := func() time.Time { return arrival }

		h.log.Debug("received kinesis record",
			"sequence", record.Kinesis.SequenceNumber,
			"partition_key", record.Kinesis.PartitionKey,
			"bytes", len(record.Kinesis.Data),
		)

		for _, line := range bytes.Split(record.Kinesis.Data, []byte("\n")) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.pipeline.Handle(ctx, line, at)
		}
	}

	return nil
}
