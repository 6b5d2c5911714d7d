package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"telemetry-anomaly-monitor/src/types"
	"telemetry-anomaly-monitor/src/utils"
)

var csvHeader = []string{"timestamp", "temperature", "voltage", "status_code"}

// CSVStore is the default structured store: one header row, one row per reading.
type CSVStore struct {
	path string

	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// OpenCSV prepares the store for a new ingestion session. The file is
// truncated and given a fresh header unless appendExisting is set and the
// file already has content.
func OpenCSV(path string, appendExisting bool) (*CSVStore, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendExisting {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &CSVStore{path: path, f: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if err := s.writeRow(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *CSVStore) Name() string { return s.path }

func (s *CSVStore) Append(ctx context.Context, rec types.StructuredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeRow([]string{
		types.FormatTime(rec.Timestamp),
		utils.FormatFloat(rec.Temperature),
		utils.FormatFloat(rec.Voltage),
		rec.StatusCode,
	})
}

func (s *CSVStore) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVStore) ReadAllOrderedByTime(ctx context.Context) ([]types.StructuredRecord, error) {
	return NewCSVReader(s.path).ReadAllOrderedByTime(ctx)
}

func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// CSVReader is the detector's read-only view of a CSV store.
type CSVReader struct {
	path string
}

func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

func (r *CSVReader) ReadAllOrderedByTime(ctx context.Context) ([]types.StructuredRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, &types.MissingHistoryError{Store: r.path, Err: err}
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, &types.MissingHistoryError{Store: r.path, Err: err}
	}

	SortByTime(records)
	return records, nil
}

func readCSV(in io.Reader) ([]types.StructuredRecord, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header %v", header)
		}
	}

	var records []types.StructuredRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
}

func parseRow(row []string) (types.StructuredRecord, error) {
	ts, err := types.ParseTime(row[0])
	if err != nil {
		return types.StructuredRecord{}, err
	}
	temperature, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return types.StructuredRecord{}, fmt.Errorf("temperature: %w", err)
	}
	voltage, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return types.StructuredRecord{}, fmt.Errorf("voltage: %w", err)
	}

	return types.StructuredRecord{
		Timestamp:   ts,
		Temperature: temperature,
		Voltage:     voltage,
		StatusCode:  row[3],
	}, nil
}
