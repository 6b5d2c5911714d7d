package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"telemetry-anomaly-monitor/src/parser"
	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

const (
	sinkRaw     = "raw log"
	sinkErrors  = "error log"
	sinkRecords = "structured store"

	decodeFailure = "decode failure"
)

// Pipeline turns one received line into sink writes: decode, audit, parse,
// then either store the reading or record why it was rejected. Sink failures
// are logged and counted, never returned.
type Pipeline struct {
	records store.RecordWriter
	raw     store.RawLog
	errs    store.ErrorLog
	log     *slog.Logger
	metrics *Metrics
}

func NewPipeline(records store.RecordWriter, raw store.RawLog, errs store.ErrorLog, log *slog.Logger, metrics *Metrics) *Pipeline {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Pipeline{records: records, raw: raw, errs: errs, log: log, metrics: metrics}
}

// Handle processes raw. now is only consulted for lines that are not blank,
// so the arrival time is taken as late as possible.
func (p *Pipeline) Handle(ctx context.Context, raw []byte, now func() time.Time) {
	line, err := parser.DecodeLine(raw)
	if err == nil && line == "" {
		return
	}

	arrival := now()
	p.metrics.LinesReceived.Inc()

	if err != nil {
		text := strings.ToValidUTF8(strings.TrimSpace(string(raw)), "\uFFFD")
		p.appendRaw(ctx, types.RawRecord{ArrivalTimestamp: arrival, RawLine: text})
		p.metrics.ParseErrors.WithLabelValues("decode").Inc()
		p.log.Warn("failed to decode line", "bytes", len(raw))
		p.appendError(ctx, types.ParseErrorRecord{Timestamp: arrival, RawLine: text, Reason: decodeFailure})
		return
	}

	p.appendRaw(ctx, types.RawRecord{ArrivalTimestamp: arrival, RawLine: line})

	switch out := parser.Parse(line, arrival).(type) {
	case parser.Parsed:
		if err := p.records.Append(ctx, out.Record); err != nil {
			p.sinkFailed(sinkRecords, err)
			return
		}
		p.metrics.RecordsStored.Inc()
		p.log.Info("logged",
			"timestamp", types.FormatTime(out.Record.Timestamp),
			"temperature", out.Record.Temperature,
			"voltage", out.Record.Voltage,
			"status", out.Record.StatusCode,
		)
	case parser.Failed:
		kind := "grammar"
		if errors.Is(out.Err, types.ErrNumericParse) {
			kind = "numeric"
		}
		p.metrics.ParseErrors.WithLabelValues(kind).Inc()
		p.log.Warn("failed to parse", "line", line, "reason", out.Reason)
		p.appendError(ctx, types.ParseErrorRecord{Timestamp: arrival, RawLine: line, Reason: out.Reason})
	}
}

func (p *Pipeline) appendRaw(ctx context.Context, rec types.RawRecord) {
	if err := p.raw.Append(ctx, rec); err != nil {
		p.sinkFailed(sinkRaw, err)
	}
}

func (p *Pipeline) appendError(ctx context.Context, rec types.ParseErrorRecord) {
	if err := p.errs.Append(ctx, rec); err != nil {
		p.sinkFailed(sinkErrors, err)
	}
}

func (p *Pipeline) sinkFailed(sink string, err error) {
	p.metrics.SinkErrors.WithLabelValues(sink).Inc()
	p.log.Error("sink write failed", "error", &types.SinkWriteError{Sink: sink, Err: err})
}
