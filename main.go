package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/s3"

	"telemetry-anomaly-monitor/src/api"
	"telemetry-anomaly-monitor/src/config"
	"telemetry-anomaly-monitor/src/detector"
	"telemetry-anomaly-monitor/src/dynamo"
	"telemetry-anomaly-monitor/src/kinesis"
	"telemetry-anomaly-monitor/src/logging"
	"telemetry-anomaly-monitor/src/report"
)

// Determine which handler to run based on event type
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		os.Exit(1)
	}

	log, err := logging.New("json", cfg.LogLevel, os.Stderr)
	if err != nil {
		fmt.Println("Error configuring logger:", err)
		os.Exit(1)
	}

	telemetry := dynamo.NewTelemetryStore(dynamo.GetDynamoDBClient(cfg.Region), cfg.Table, cfg.DeviceID, cfg.TTL)

	var reports report.DocumentWriter
	if cfg.Bucket != "" {
		reports = report.NewS3Writer(s3.New(dynamo.GetSession(cfg.Region)), cfg.Bucket, cfg.Prefix, cfg.Gzip)
	}

	handler := api.NewHandler(telemetry, detector.NewEngine(cfg.Thresholds), reports, os.Stdout, log)

	ingester := kinesis.NewHandler(telemetry, log, nil)

	lambda.Start(func(ctx context.Context, event json.RawMessage) (interface{}, error) {
		eventType, err := api.DetectEventType(event)
		if err != nil {
			log.Error("error detecting event type", "error", err)
			return nil, err
		}

		switch eventType {
		case api.EventScheduled:
			var scheduled events.CloudWatchEvent
			if err := json.Unmarshal(event, &scheduled); err != nil {
				return nil, fmt.Errorf("unmarshal scheduled event: %w", err)
			}
			return handler.HandleScheduled(ctx, scheduled)

		case api.EventKinesis:
			var batch events.KinesisEvent
			if err := json.Unmarshal(event, &batch); err != nil {
				return nil, fmt.Errorf("unmarshal kinesis event: %w", err)
			}
			return nil, ingester.Handle(ctx, batch)

		case api.EventHTTP:
			var req events.APIGatewayV2HTTPRequest
			if err := json.Unmarshal(event, &req); err != nil {
				return nil, fmt.Errorf("unmarshal http event: %w", err)
			}
			return handler.HandleHTTP(ctx, req)

		default:
			return nil, fmt.Errorf("unknown event type: %s", eventType)
		}
	})
}
