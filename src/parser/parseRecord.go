package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"telemetry-anomaly-monitor/src/types"
)

// Outcome is either Parsed or Failed.
type Outcome interface {
	outcome()
}

type Parsed struct {
	Record types.StructuredRecord
}

// Failed carries a human readable reason for the error log. Err wraps
// types.ErrGrammar or types.ErrNumericParse.
type Failed struct {
	Reason string
	Err    error
}

func (Parsed) outcome() {}
func (Failed) outcome() {}

const (
	tempPrefix    = "T:"
	voltPrefix    = "V:"
	statusPrefix  = "S:"
	fieldSplitter = ","
)

// Parse applies the wire grammar T:<decimal>,V:<decimal>,S:<token> to a
// decoded line. The record is stamped with the arrival time, never with
// anything carried in the line.
func Parse(line string, arrival time.Time) Outcome {
	parts := strings.Split(line, fieldSplitter)
	if len(parts) != 3 ||
		!strings.HasPrefix(parts[0], tempPrefix) ||
		!strings.HasPrefix(parts[1], voltPrefix) ||
		!strings.HasPrefix(parts[2], statusPrefix) {
		return grammarFailure(line)
	}

	temperature, failed := parseField("temperature", strings.TrimPrefix(parts[0], tempPrefix))
	if failed != nil {
		return *failed
	}

	voltage, failed := parseField("voltage", strings.TrimPrefix(parts[1], voltPrefix))
	if failed != nil {
		return *failed
	}

	return Parsed{Record: types.StructuredRecord{
		Timestamp:   arrival,
		Temperature: temperature,
		Voltage:     voltage,
		StatusCode:  strings.TrimPrefix(parts[2], statusPrefix),
	}}
}

func grammarFailure(line string) Failed {
	reason := fmt.Sprintf("malformed data structure: %s", line)
	return Failed{Reason: reason, Err: fmt.Errorf("%w: %s", types.ErrGrammar, line)}
}

// parseField accepts plain decimal notation only: no hex floats, digit
// separators, NaN or infinities.
func parseField(name, value string) (float64, *Failed) {
	value = strings.TrimSpace(value)

	fail := func() (float64, *Failed) {
		reason := fmt.Sprintf("invalid %s %q: must be a finite decimal number", name, value)
		return 0, &Failed{Reason: reason, Err: fmt.Errorf("%w: %s", types.ErrNumericParse, reason)}
	}

	if value == "" || strings.ContainsAny(value, "xX_pP") {
		return fail()
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fail()
	}

	return v, nil
}
