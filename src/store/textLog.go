package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"telemetry-anomaly-monitor/src/types"
)

type textFile struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func openTextFile(path string) (*textFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &textFile{path: path, f: f}, nil
}

func (t *textFile) writeLine(format string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.f, format+"\n", args...)
	return err
}

func (t *textFile) Name() string { return t.path }

func (t *textFile) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Close()
}

// RawTextLog is the audit trail: every non-empty received line, parsed or not.
type RawTextLog struct {
	*textFile
}

func OpenRawLog(path string) (*RawTextLog, error) {
	tf, err := openTextFile(path)
	if err != nil {
		return nil, err
	}
	return &RawTextLog{tf}, nil
}

func (l *RawTextLog) Append(ctx context.Context, rec types.RawRecord) error {
	return l.writeLine("%s | %s", types.FormatTime(rec.ArrivalTimestamp), rec.RawLine)
}

type ErrorTextLog struct {
	*textFile
}

func OpenErrorLog(path string) (*ErrorTextLog, error) {
	tf, err := openTextFile(path)
	if err != nil {
		return nil, err
	}
	return &ErrorTextLog{tf}, nil
}

func (l *ErrorTextLog) Append(ctx context.Context, rec types.ParseErrorRecord) error {
	return l.writeLine("%s | PARSE_ERROR | %s", types.FormatTime(rec.Timestamp), rec.Reason)
}
