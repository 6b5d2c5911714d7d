package api

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

const (
	EventScheduled = "scheduled"
	EventHTTP      = "http"
	EventKinesis   = "kinesis"
)

func DetectEventType(event json.RawMessage) (string, error) {
	// Try parsing as an EventBridge scheduled event
	var scheduled events.CloudWatchEvent
	if err := json.Unmarshal(event, &scheduled); err == nil {
		if scheduled.Source == "aws.events" && scheduled.DetailType == "Scheduled Event" {
			return EventScheduled, nil
		}
	}

	// Try parsing as a Kinesis stream batch
	var kinesisEvent events.KinesisEvent
	if err := json.Unmarshal(event, &kinesisEvent); err == nil {
		if len(kinesisEvent.Records) > 0 && kinesisEvent.Records[0].EventSource == "aws:kinesis" {
			return EventKinesis, nil
		}
	}

	// Try parsing as an API Gateway HTTP API event
	var httpEvent events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(event, &httpEvent); err == nil {
		if httpEvent.RouteKey != "" || httpEvent.RequestContext.HTTP.Method != "" {
			return EventHTTP, nil
		}
	}

	return "", fmt.Errorf("unknown event type")
}
