package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"

	"telemetry-anomaly-monitor/src/types"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresStore keeps readings in a table whose seq column preserves insertion order.
type PostgresStore struct {
	db        *sql.DB
	tableName string
}

func OpenPostgres(dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db, table)
}

func NewPostgresStore(db *sql.DB, table string) (*PostgresStore, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{db: db, tableName: table}, nil
}

func (p *PostgresStore) Name() string { return "postgres:" + p.tableName }

func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq BIGSERIAL PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	voltage DOUBLE PRECISION NOT NULL,
	status_code TEXT NOT NULL
)`, p.tableName))
	if err != nil {
		return fmt.Errorf("create table %s: %w", p.tableName, err)
	}
	return nil
}

func (p *PostgresStore) Append(ctx context.Context, rec types.StructuredRecord) error {
	_, err := p.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (ts, temperature, voltage, status_code) VALUES ($1,$2,$3,$4)", p.tableName),
		rec.Timestamp, rec.Temperature, rec.Voltage, rec.StatusCode,
	)
	return err
}

func (p *PostgresStore) ReadAllOrderedByTime(ctx context.Context) ([]types.StructuredRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf("SELECT ts, temperature, voltage, status_code FROM %s ORDER BY ts, seq", p.tableName))
	if err != nil {
		return nil, &types.MissingHistoryError{Store: p.Name(), Err: err}
	}
	defer rows.Close()

	var records []types.StructuredRecord
	for rows.Next() {
		var rec types.StructuredRecord
		if err := rows.Scan(&rec.Timestamp, &rec.Temperature, &rec.Voltage, &rec.StatusCode); err != nil {
			return nil, &types.MissingHistoryError{Store: p.Name(), Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.MissingHistoryError{Store: p.Name(), Err: err}
	}

	return records, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

var (
	_ RecordWriter  = (*PostgresStore)(nil)
	_ HistoryReader = (*PostgresStore)(nil)
	_ RecordWriter  = (*CSVStore)(nil)
	_ HistoryReader = (*CSVReader)(nil)
	_ RawLog        = (*RawTextLog)(nil)
	_ ErrorLog      = (*ErrorTextLog)(nil)
	_ RawLog        = (*MemoryLog[types.RawRecord])(nil)
	_ ErrorLog      = (*MemoryLog[types.ParseErrorRecord])(nil)
)
