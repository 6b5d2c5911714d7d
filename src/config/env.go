package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LambdaConfig is what the Lambda entry point reads from its environment.
type LambdaConfig struct {
	Table      string
	DeviceID   string
	Region     string
	Bucket     string
	Prefix     string
	Gzip       bool
	TTL        time.Duration
	LogLevel   string
	Thresholds Thresholds
}

// FromEnv builds the Lambda configuration. TELEMETRY_TABLE is required;
// T_HIGH, V_LOW, V_HIGH, ROC_THRESHOLD and HEARTBEAT_TIMEOUT override the
// default thresholds when set.
func FromEnv() (*LambdaConfig, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (*LambdaConfig, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	cfg := &LambdaConfig{
		Table:      get("TELEMETRY_TABLE", ""),
		DeviceID:   get("DEVICE_ID", "device"),
		Region:     get("AWS_REGION", "eu-west-1"),
		Bucket:     get("REPORT_BUCKET", ""),
		Prefix:     get("REPORT_PREFIX", "reports"),
		LogLevel:   get("LOG_LEVEL", "info"),
		Thresholds: DefaultThresholds(),
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("TELEMETRY_TABLE environment variable not set")
	}

	if v := get("REPORT_GZIP", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("REPORT_GZIP: %w", err)
		}
		cfg.Gzip = b
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"T_HIGH", &cfg.Thresholds.TempHigh},
		{"V_LOW", &cfg.Thresholds.VoltageLow},
		{"V_HIGH", &cfg.Thresholds.VoltageHigh},
		{"ROC_THRESHOLD", &cfg.Thresholds.RateOfChange},
	}
	for _, f := range floats {
		v := get(f.key, "")
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = parsed
	}

	if v := get("TELEMETRY_TTL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TELEMETRY_TTL: %w", err)
		}
		cfg.TTL = d
	}

	if v := get("HEARTBEAT_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HEARTBEAT_TIMEOUT: %w", err)
		}
		cfg.Thresholds.HeartbeatTimeout = d
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
