package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"telemetry-anomaly-monitor/src/detector"
	"telemetry-anomaly-monitor/src/report"
	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

type Handler struct {
	history store.HistoryReader
	engine  *detector.Engine
	reports report.DocumentWriter
	console io.Writer
	log     *slog.Logger
}

// NewHandler serves detection over history. reports may be nil, in which case
// scheduled runs only print to console.
func NewHandler(history store.HistoryReader, engine *detector.Engine, reports report.DocumentWriter, console io.Writer, log *slog.Logger) *Handler {
	return &Handler{history: history, engine: engine, reports: reports, console: console, log: log}
}

// RunSummary is what a scheduled invocation returns.
type RunSummary struct {
	RunID     string `json:"run_id"`
	Records   int    `json:"records"`
	Anomalies int    `json:"anomalies"`
	Report    string `json:"report,omitempty"`
	Error     string `json:"report_error,omitempty"`
}

func (h *Handler) HandleScheduled(ctx context.Context, event events.CloudWatchEvent) (RunSummary, error) {
	runID := uuid.NewString()
	log := h.log.With("run_id", runID)
	log.Info("detection run started", "trigger", event.ID)

	records, anomalies, err := detector.Run(ctx, h.history, h.engine)
	if err != nil {
		log.Error("detection run failed", "error", err)
		return RunSummary{RunID: runID}, err
	}

	summary := RunSummary{RunID: runID, Records: len(records), Anomalies: len(anomalies)}

	err = report.Emit(ctx, h.console, anomalies, h.reports)
	var rwe *types.ReportWriteError
	switch {
	case errors.As(err, &rwe):
		log.Error("could not write report", "error", err)
		summary.Error = err.Error()
	case err != nil:
		return summary, err
	case len(anomalies) > 0 && h.reports != nil:
		summary.Report = h.reports.Name()
		if s3w, ok := h.reports.(*report.S3Writer); ok {
			summary.Report = s3w.LastKey()
		}
	}

	log.Info("detection run finished", "records", summary.Records, "anomalies", summary.Anomalies)
	return summary, nil
}

type historyEntry struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Voltage     float64 `json:"voltage"`
	StatusCode  string  `json:"status_code"`
}

func (h *Handler) HandleHTTP(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	switch routeKey(req) {
	case "GET /history":
		records, err := h.history.ReadAllOrderedByTime(ctx)
		if err != nil {
			return h.failure(err), nil
		}

		if since := req.QueryStringParameters["since"]; since != "" {
			from, err := types.ParseTime(since)
			if err != nil {
				return respond(400, map[string]string{"error": err.Error()}), nil
			}
			records = after(records, from)
		}

		out := make([]historyEntry, 0, len(records))
		for _, r := range records {
			out = append(out, historyEntry{
				Timestamp:   types.FormatTime(r.Timestamp),
				Temperature: r.Temperature,
				Voltage:     r.Voltage,
				StatusCode:  r.StatusCode,
			})
		}
		return respond(200, out), nil

	case "GET /anomalies":
		_, anomalies, err := detector.Run(ctx, h.history, h.engine)
		if err != nil {
			return h.failure(err), nil
		}
		return respond(200, report.Entries(anomalies)), nil

	case "OPTIONS /history", "OPTIONS /anomalies":
		return events.APIGatewayV2HTTPResponse{StatusCode: 204, Headers: corsHeaders}, nil

	default:
		return events.APIGatewayV2HTTPResponse{
			StatusCode: 404,
			Headers:    corsHeaders,
			Body:       "Not Found",
		}, nil
	}
}

func routeKey(req events.APIGatewayV2HTTPRequest) string {
	if req.RouteKey != "" && req.RouteKey != "$default" {
		return req.RouteKey
	}
	return req.RequestContext.HTTP.Method + " " + req.RawPath
}

func after(records []types.StructuredRecord, from time.Time) []types.StructuredRecord {
	out := records[:0:0]
	for _, r := range records {
		if !r.Timestamp.Before(from) {
			out = append(out, r)
		}
	}
	return out
}

func (h *Handler) failure(err error) events.APIGatewayV2HTTPResponse {
	h.log.Error("request failed", "error", err)

	var missing *types.MissingHistoryError
	if errors.As(err, &missing) {
		return respond(503, map[string]string{"error": "telemetry history unavailable"})
	}
	return respond(500, map[string]string{"error": err.Error()})
}

func respond(status int, payload any) events.APIGatewayV2HTTPResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: 500, Headers: corsHeaders, Body: err.Error()}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    corsHeaders,
		Body:       string(body),
	}
}
