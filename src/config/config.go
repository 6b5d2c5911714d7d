package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Thresholds Thresholds    `yaml:"thresholds"`
	Source     SourceConfig  `yaml:"source"`
	Store      StoreConfig   `yaml:"store"`
	Logs       LogsConfig    `yaml:"logs"`
	Report     ReportConfig  `yaml:"report"`
	Metrics    MetricsConfig `yaml:"metrics"`
	Log        LogConfig     `yaml:"log"`
}

type SourceConfig struct {
	Kind        string        `yaml:"kind"` // "serial", "tcp", "replay"
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	Address     string        `yaml:"address"`
	Path        string        `yaml:"path"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type StoreConfig struct {
	Kind           string        `yaml:"kind"` // "csv", "postgres", "dynamodb"
	CSVPath        string        `yaml:"csv_path"`
	AppendExisting bool          `yaml:"append_existing"`
	PostgresDSN    string        `yaml:"postgres_dsn"`
	PostgresTable  string        `yaml:"postgres_table"`
	DynamoTable    string        `yaml:"dynamo_table"`
	DeviceID       string        `yaml:"device_id"`
	Region         string        `yaml:"region"`
	TTL            time.Duration `yaml:"ttl"`
}

type LogsConfig struct {
	RawPath   string `yaml:"raw_path"`
	ErrorPath string `yaml:"error_path"`
}

type ReportConfig struct {
	Path     string `yaml:"path"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	Gzip     bool   `yaml:"gzip"`
}

type MetricsConfig struct {
	Addr           string `yaml:"addr"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Thresholds: DefaultThresholds()}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML config file. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Thresholds: DefaultThresholds()}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = "serial"
	}
	if c.Source.BaudRate == 0 {
		c.Source.BaudRate = 9600
	}
	if c.Source.ReadTimeout == 0 {
		c.Source.ReadTimeout = time.Second
	}
	if c.Source.DialTimeout == 0 {
		c.Source.DialTimeout = 5 * time.Second
	}
	if c.Store.Kind == "" {
		c.Store.Kind = "csv"
	}
	if c.Store.CSVPath == "" {
		c.Store.CSVPath = "structured_metrics.csv"
	}
	if c.Store.PostgresTable == "" {
		c.Store.PostgresTable = "telemetry_records"
	}
	if c.Store.DeviceID == "" {
		c.Store.DeviceID = "device"
	}
	if c.Store.Region == "" {
		c.Store.Region = "eu-west-1"
	}
	if c.Logs.RawPath == "" {
		c.Logs.RawPath = "raw.log"
	}
	if c.Logs.ErrorPath == "" {
		c.Logs.ErrorPath = "parser_errors.log"
	}
	if c.Report.Path == "" {
		c.Report.Path = "anomaly_report.json"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "telemetry_detector"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}

	switch c.Source.Kind {
	case "serial", "tcp", "replay":
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	if c.Source.ReadTimeout < 0 {
		return fmt.Errorf("source.read_timeout must not be negative")
	}

	switch c.Store.Kind {
	case "csv":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for postgres stores")
		}
	case "dynamodb":
		if c.Store.DynamoTable == "" {
			return fmt.Errorf("store.dynamo_table is required for dynamodb stores")
		}
	default:
		return fmt.Errorf("unknown store.kind %q", c.Store.Kind)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}

	return nil
}

// ValidateSource checks what the ingestion service needs to attach its
// source. The detector never opens one, so Validate leaves this out.
func (c *Config) ValidateSource() error {
	switch c.Source.Kind {
	case "serial":
		if c.Source.Port == "" {
			return fmt.Errorf("source.port is required for serial sources")
		}
	case "tcp":
		if c.Source.Address == "" {
			return fmt.Errorf("source.address is required for tcp sources")
		}
	case "replay":
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for replay sources")
		}
	}
	return nil
}
