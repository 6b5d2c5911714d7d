package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"telemetry-anomaly-monitor/src/types"
)

const NoAnomaliesLine = "No anomalies detected. System is operating normally."

// DocumentWriter stores the machine-readable report.
type DocumentWriter interface {
	Name() string
	WriteDocument(ctx context.Context, doc []byte) error
}

// Clearer is implemented by writers whose destination outlives a run. A
// clean run clears it so no earlier report is mistaken for a current one.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Emit prints one console line per anomaly, then hands the JSON document to
// doc. With no anomalies it prints NoAnomaliesLine, writes no document and
// clears doc when it is a Clearer.
// A document failure is returned as *types.ReportWriteError; the console
// output stands either way.
func Emit(ctx context.Context, console io.Writer, anomalies []types.Anomaly, doc DocumentWriter) error {
	if len(anomalies) == 0 {
		if _, err := fmt.Fprintln(console, NoAnomaliesLine); err != nil {
			return err
		}
		if c, ok := doc.(Clearer); ok {
			if err := c.Clear(ctx); err != nil {
				return &types.ReportWriteError{Destination: doc.Name(), Err: err}
			}
		}
		return nil
	}

	entries := Entries(anomalies)
	for _, e := range entries {
		if _, err := fmt.Fprintf(console, "[%s]-[%s]-[%s] : %s\n", e.Timestamp, e.Severity, e.Type, e.Description); err != nil {
			return err
		}
	}

	if doc == nil {
		return nil
	}

	body, err := Encode(entries)
	if err != nil {
		return &types.ReportWriteError{Destination: doc.Name(), Err: err}
	}
	if err := doc.WriteDocument(ctx, body); err != nil {
		return &types.ReportWriteError{Destination: doc.Name(), Err: err}
	}

	return nil
}

// Encode renders entries as a JSON array indented by four spaces.
func Encode(entries []types.ReportEntry) ([]byte, error) {
	if entries == nil {
		entries = []types.ReportEntry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Entries is the machine-readable form of anomalies, in the same order.
func Entries(anomalies []types.Anomaly) []types.ReportEntry {
	out := make([]types.ReportEntry, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, a.Entry())
	}
	return out
}
