package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: replay
  path: capture.txt
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, "csv", cfg.Store.Kind)
	assert.Equal(t, "structured_metrics.csv", cfg.Store.CSVPath)
	assert.Equal(t, "raw.log", cfg.Logs.RawPath)
	assert.Equal(t, "parser_errors.log", cfg.Logs.ErrorPath)
	assert.Equal(t, "anomaly_report.json", cfg.Report.Path)
	assert.Equal(t, time.Second, cfg.Source.ReadTimeout)
	assert.Equal(t, 9600, cfg.Source.BaudRate)
}

func TestLoadOverridesThresholds(t *testing.T) {
	path := writeConfig(t, `
thresholds:
  t_high: 70
  heartbeat_timeout: 10s
source:
  kind: tcp
  address: 127.0.0.1:9000
store:
  kind: postgres
  postgres_dsn: postgres://localhost/telemetry
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 70.0, cfg.Thresholds.TempHigh)
	assert.Equal(t, 10*time.Second, cfg.Thresholds.HeartbeatTimeout)
	assert.Equal(t, 4.5, cfg.Thresholds.VoltageLow)
	assert.Equal(t, 5.5, cfg.Thresholds.VoltageHigh)
	assert.Equal(t, "telemetry_records", cfg.Store.PostgresTable)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown source", "source:\n  kind: carrier-pigeon\n", "unknown source.kind"},
		{"unknown store", "source:\n  kind: replay\n  path: x\nstore:\n  kind: mongo\n", "unknown store.kind"},
		{"inverted voltage band", "thresholds:\n  v_low: 6\n  v_high: 5\nsource:\n  kind: replay\n  path: x\n", "v_low"},
		{"zero heartbeat", "thresholds:\n  heartbeat_timeout: 0s\nsource:\n  kind: replay\n  path: x\n", "heartbeat_timeout"},
		{"dynamo without table", "source:\n  kind: replay\n  path: x\nstore:\n  kind: dynamodb\n", "dynamo_table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"TELEMETRY_TABLE":   "Telemetry",
		"REPORT_BUCKET":     "reports-bucket",
		"T_HIGH":            "90.5",
		"HEARTBEAT_TIMEOUT": "6s",
		"REPORT_GZIP":       "true",
		"TELEMETRY_TTL":     "720h",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, err := fromLookup(lookup)
	require.NoError(t, err)

	assert.Equal(t, "Telemetry", cfg.Table)
	assert.Equal(t, "device", cfg.DeviceID)
	assert.Equal(t, "reports-bucket", cfg.Bucket)
	assert.True(t, cfg.Gzip)
	assert.Equal(t, 90.5, cfg.Thresholds.TempHigh)
	assert.Equal(t, 6*time.Second, cfg.Thresholds.HeartbeatTimeout)
	assert.Equal(t, 15.0, cfg.Thresholds.RateOfChange)
	assert.Equal(t, 720*time.Hour, cfg.TTL)
}

func TestFromEnvRequiresTable(t *testing.T) {
	_, err := fromLookup(func(string) (string, bool) { return "", false })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEMETRY_TABLE")
}

func TestFromEnvRejectsBadThreshold(t *testing.T) {
	_, err := fromLookup(func(k string) (string, bool) {
		switch k {
		case "TELEMETRY_TABLE":
			return "Telemetry", true
		case "V_HIGH":
			return "high", true
		}
		return "", false
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "V_HIGH")
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name string
		src  SourceConfig
		want string
	}{
		{"serial without port", SourceConfig{Kind: "serial"}, "source.port"},
		{"tcp without address", SourceConfig{Kind: "tcp"}, "source.address"},
		{"replay without path", SourceConfig{Kind: "replay"}, "source.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Source = tt.src
			require.NoError(t, cfg.Validate())

			err := cfg.ValidateSource()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := Default()
	cfg.Source.Port = "COM6"
	assert.NoError(t, cfg.ValidateSource())
}
