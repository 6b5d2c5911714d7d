// detector reads the recorded telemetry history, classifies anomalies and
// prints the report, writing anomaly_report.json when anything was found.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/spf13/pflag"

	"telemetry-anomaly-monitor/src/config"
	"telemetry-anomaly-monitor/src/detector"
	"telemetry-anomaly-monitor/src/dynamo"
	"telemetry-anomaly-monitor/src/logging"
	"telemetry-anomaly-monitor/src/report"
	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("detector", pflag.ContinueOnError)
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

	log, err := logging.New(cfg.Log.Format, cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, closeHistory, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	started := time.Now()
	records, anomalies, err := detector.Run(ctx, history, detector.NewEngine(cfg.Thresholds))
	if err != nil {
		log.Error("could not load telemetry history", "error", err)
		return err
	}
	log.Info("loaded records", "count", len(records))

	doc := documentWriter(cfg)
	err = report.Emit(ctx, os.Stdout, anomalies, doc)
	var rwe *types.ReportWriteError
	switch {
	case errors.As(err, &rwe):
		log.Error("could not write JSON report", "error", err)
	case err != nil:
		return err
	case len(anomalies) > 0:
		log.Info("report written", "destination", doc.Name(), "anomalies", len(anomalies))
	}

	if cfg.Metrics.PushgatewayURL != "" {
		m := detector.NewRunMetrics()
		m.Observe(len(records), anomalies, time.Since(started), time.Now())
		if err := m.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			log.Warn("could not push metrics", "url", cfg.Metrics.PushgatewayURL, "error", err)
		}
	}

	return nil
}

func openHistory(cfg *config.Config) (store.HistoryReader, func(), error) {
	switch cfg.Store.Kind {
	case "postgres":
		pg, err := store.OpenPostgres(cfg.Store.PostgresDSN, cfg.Store.PostgresTable)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil

	case "dynamodb":
		client := dynamo.GetDynamoDBClient(cfg.Store.Region)
		return dynamo.NewTelemetryStore(client, cfg.Store.DynamoTable, cfg.Store.DeviceID, 0), func() {}, nil

	default:
		return store.NewCSVReader(cfg.Store.CSVPath), func() {}, nil
	}
}

func documentWriter(cfg *config.Config) report.DocumentWriter {
	if cfg.Report.S3Bucket != "" {
		client := s3.New(dynamo.GetSession(cfg.Store.Region))
		return report.NewS3Writer(client, cfg.Report.S3Bucket, cfg.Report.S3Prefix, cfg.Report.Gzip)
	}
	return report.NewFileWriter(cfg.Report.Path)
}
