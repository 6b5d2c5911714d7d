package types

import (
	"fmt"
	"time"
)

// TimeLayout is the ISO-8601 rendering used by every log, store and report.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Naive timestamps as written by earlier logger versions (no offset, local time).
const naiveTimeLayout = "2006-01-02T15:04:05"

// RawRecord is one received line, kept regardless of whether it parsed.
type RawRecord struct {
	ArrivalTimestamp time.Time
	RawLine          string
}

// StructuredRecord is a reading that satisfied the wire grammar.
type StructuredRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Voltage     float64   `json:"voltage"`
	StatusCode  string    `json:"status_code"`
}

type ParseErrorRecord struct {
	Timestamp time.Time
	RawLine   string
	Reason    string
}

type AnomalyKind string

const (
	THRESHOLD_BREACH_TEMP    AnomalyKind = "THRESHOLD_BREACH_TEMP"
	THRESHOLD_BREACH_VOLTAGE AnomalyKind = "THRESHOLD_BREACH_VOLTAGE"
	RAPID_CHANGE_TEMP        AnomalyKind = "RAPID_CHANGE_TEMP"
	HEARTBEAT_LOSS           AnomalyKind = "HEARTBEAT_LOSS"
)

func (k AnomalyKind) String() string {
	switch k {
	case THRESHOLD_BREACH_TEMP, THRESHOLD_BREACH_VOLTAGE, RAPID_CHANGE_TEMP, HEARTBEAT_LOSS:
		return string(k)
	default:
		return "Unknown"
	}
}

type Severity string

const (
	WARNING  Severity = "WARNING"
	CRITICAL Severity = "CRITICAL"
)

func (s Severity) String() string {
	switch s {
	case WARNING, CRITICAL:
		return string(s)
	default:
		return "Unknown"
	}
}

// Anomaly is produced by the detection engine only; it is never written back to the store.
type Anomaly struct {
	Timestamp   time.Time
	Kind        AnomalyKind
	Severity    Severity
	Description string
}

// ReportEntry is the machine-readable shape of an anomaly.
type ReportEntry struct {
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

func (a Anomaly) Entry() ReportEntry {
	return ReportEntry{
		Timestamp:   FormatTime(a.Timestamp),
		Type:        a.Kind.String(),
		Severity:    a.Severity.String(),
		Description: a.Description,
	}
}

func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime accepts RFC 3339 timestamps with any fractional precision and
// falls back to naive local timestamps.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation(naiveTimeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}

	return t, nil
}
