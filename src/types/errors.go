package types

import (
	"errors"
	"fmt"
)

// Per-line failures. The ingestion loop records them and moves on.
var (
	ErrDecode       = errors.New("decode failure")
	ErrGrammar      = errors.New("malformed data structure")
	ErrNumericParse = errors.New("invalid numeric field")
)

// SinkWriteError is a failed append to the raw log, error log or structured store.
type SinkWriteError struct {
	Sink string
	Err  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write to %s failed: %v", e.Sink, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// SourceUnavailableError means the line source could not be opened or was lost mid-session.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MissingHistoryError means the structured store does not exist or cannot be read.
type MissingHistoryError struct {
	Store string
	Err   error
}

func (e *MissingHistoryError) Error() string {
	return fmt.Sprintf("cannot read history from %s: %v", e.Store, e.Err)
}

func (e *MissingHistoryError) Unwrap() error { return e.Err }

type ReportWriteError struct {
	Destination string
	Err         error
}

func (e *ReportWriteError) Error() string {
	return fmt.Sprintf("could not write report to %s: %v", e.Destination, e.Err)
}

func (e *ReportWriteError) Unwrap() error { return e.Err }
