// logger-service listens to a device link and records every line it receives:
// the raw audit log, the parse error log and the structured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"telemetry-anomaly-monitor/src/config"
	"telemetry-anomaly-monitor/src/dynamo"
	"telemetry-anomaly-monitor/src/ingest"
	"telemetry-anomaly-monitor/src/logging"
	"telemetry-anomaly-monitor/src/source"
	"telemetry-anomaly-monitor/src/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("logger-service", pflag.ContinueOnError)
	flags := config.AddFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := flags.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateSource(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Format, cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, closeRecords, err := openRecordWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecords()

	raw, err := store.OpenRawLog(cfg.Logs.RawPath)
	if err != nil {
		return err
	}
	defer raw.Close()

	errs, err := store.OpenErrorLog(cfg.Logs.ErrorPath)
	if err != nil {
		return err
	}
	defer errs.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := ingest.NewMetrics(reg)

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	svc := ingest.NewService(ingest.Options{
		Source:  newSource(cfg.Source),
		Records: records,
		Raw:     raw,
		Errors:  errs,
		Logger:  log,
		Metrics: metrics,
	})

	log.Info("logger service started", "source", cfg.Source.Kind, "store", cfg.Store.Kind)
	if err := svc.Run(ctx); err != nil {
		log.Error("ingestion failed", "error", err)
		return err
	}
	log.Info("logger service stopped")

	return nil
}

func newSource(cfg config.SourceConfig) source.Source {
	switch cfg.Kind {
	case "tcp":
		return &source.TCP{Address: cfg.Address, DialTimeout: cfg.DialTimeout, ReadTimeout: cfg.ReadTimeout}
	case "replay":
		return &source.Replay{Path: cfg.Path}
	default:
		return &source.Serial{Port: cfg.Port, BaudRate: cfg.BaudRate, ReadTimeout: cfg.ReadTimeout}
	}
}

func openRecordWriter(ctx context.Context, cfg *config.Config) (store.RecordWriter, func(), error) {
	switch cfg.Store.Kind {
	case "postgres":
		pg, err := store.OpenPostgres(cfg.Store.PostgresDSN, cfg.Store.PostgresTable)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil

	case "dynamodb":
		client := dynamo.GetDynamoDBClient(cfg.Store.Region)
		return dynamo.NewTelemetryStore(client, cfg.Store.DynamoTable, cfg.Store.DeviceID, cfg.Store.TTL), func() {}, nil

	default:
		csvStore, err := store.OpenCSV(cfg.Store.CSVPath, cfg.Store.AppendExisting)
		if err != nil {
			return nil, nil, err
		}
		return csvStore, func() { csvStore.Close() }, nil
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)

	return srv
}
