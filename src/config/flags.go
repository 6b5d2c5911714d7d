package config

import (
	"github.com/spf13/pflag"
)

// Flags lets the binaries override individual config fields on the command line.
type Flags struct {
	fs         *pflag.FlagSet
	configPath string
	overrides  Config
}

func AddFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	o := &f.overrides

	fs.StringVarP(&f.configPath, "config", "c", "", "path to YAML config file")

	fs.StringVar(&o.Source.Kind, "source", "", "line source: serial, tcp or replay")
	fs.StringVar(&o.Source.Port, "port", "", "serial port to listen on")
	fs.IntVar(&o.Source.BaudRate, "baud", 0, "serial baud rate")
	fs.StringVar(&o.Source.Address, "address", "", "host:port of a TCP device link")
	fs.StringVar(&o.Source.Path, "replay", "", "replay a captured session from this file (- for stdin)")

	fs.StringVar(&o.Store.Kind, "store", "", "structured store: csv, postgres or dynamodb")
	fs.StringVar(&o.Store.CSVPath, "csv", "", "structured CSV store path")
	fs.BoolVar(&o.Store.AppendExisting, "append", false, "keep existing CSV rows instead of starting a fresh file")
	fs.StringVar(&o.Store.PostgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	fs.StringVar(&o.Store.DynamoTable, "dynamo-table", "", "DynamoDB table name")

	fs.StringVar(&o.Logs.RawPath, "raw-log", "", "raw audit log path")
	fs.StringVar(&o.Logs.ErrorPath, "error-log", "", "parse error log path")
	fs.StringVar(&o.Report.Path, "report", "", "JSON report path")

	fs.StringVar(&o.Metrics.Addr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&o.Metrics.PushgatewayURL, "pushgateway", "", "push detector metrics to this Pushgateway")

	fs.StringVar(&o.Log.Level, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&o.Log.Format, "log-format", "", "text or json")

	return f
}

// Load reads the config file when one was given, otherwise starts from the
// defaults, then applies every flag that was set explicitly.
func (f *Flags) Load() (*Config, error) {
	var cfg *Config
	if f.configPath != "" {
		loaded, err := Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = Default()
	}

	o := f.overrides
	set := func(name string, apply func()) {
		if f.fs.Changed(name) {
			apply()
		}
	}

	set("source", func() { cfg.Source.Kind = o.Source.Kind })
	set("port", func() { cfg.Source.Port = o.Source.Port })
	set("baud", func() { cfg.Source.BaudRate = o.Source.BaudRate })
	set("address", func() { cfg.Source.Address = o.Source.Address })
	set("replay", func() {
		cfg.Source.Path = o.Source.Path
		if !f.fs.Changed("source") {
			cfg.Source.Kind = "replay"
		}
	})
	set("store", func() { cfg.Store.Kind = o.Store.Kind })
	set("csv", func() { cfg.Store.CSVPath = o.Store.CSVPath })
	set("append", func() { cfg.Store.AppendExisting = o.Store.AppendExisting })
	set("postgres-dsn", func() { cfg.Store.PostgresDSN = o.Store.PostgresDSN })
	set("dynamo-table", func() { cfg.Store.DynamoTable = o.Store.DynamoTable })
	set("raw-log", func() { cfg.Logs.RawPath = o.Logs.RawPath })
	set("error-log", func() { cfg.Logs.ErrorPath = o.Logs.ErrorPath })
	set("report", func() { cfg.Report.Path = o.Report.Path })
	set("metrics-addr", func() { cfg.Metrics.Addr = o.Metrics.Addr })
	set("pushgateway", func() { cfg.Metrics.PushgatewayURL = o.Metrics.PushgatewayURL })
	set("log-level", func() { cfg.Log.Level = o.Log.Level })
	set("log-format", func() { cfg.Log.Format = o.Log.Format })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
