package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"telemetry-anomaly-monitor/src/types"
)

// TelemetryItem is the table layout: one partition per device, sorted by
// arrival time with a per-session sequence to keep equal timestamps apart.
type TelemetryItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	Timestamp   string  `dynamodbav:"timestamp"`
	Temperature float64 `dynamodbav:"temperature"`
	Voltage     float64 `dynamodbav:"voltage"`
	StatusCode  string  `dynamodbav:"status_code"`
	TTL         int64   `dynamodbav:"ttl,omitempty"`
}

type TelemetryStore struct {
	client   dynamodbiface.DynamoDBAPI
	table    string
	deviceID string
	ttl      time.Duration

	mu  sync.Mutex
	seq uint64
}

// NewTelemetryStore keeps items for ttl when ttl > 0, otherwise forever.
func NewTelemetryStore(client dynamodbiface.DynamoDBAPI, table, deviceID string, ttl time.Duration) *TelemetryStore {
	return &TelemetryStore{client: client, table: table, deviceID: deviceID, ttl: ttl}
}

func (s *TelemetryStore) Name() string { return "dynamodb:" + s.table }

func sortKey(ts time.Time, seq uint64) string {
	return fmt.Sprintf("%s#%012d", ts.UTC().Format(types.TimeLayout), seq)
}

// Writers in other processes keep their own sequence, so a put never
// replaces an existing item; a taken sort key moves on to the next sequence.
const maxSortKeyAttempts = 8

func (s *TelemetryStore) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *TelemetryStore) Append(ctx context.Context, rec types.StructuredRecord) error {
	item := TelemetryItem{
		PK:          s.deviceID,
		Timestamp:   types.FormatTime(rec.Timestamp),
		Temperature: rec.Temperature,
		Voltage:     rec.Voltage,
		StatusCode:  rec.StatusCode,
	}
	if s.ttl > 0 {
		item.TTL = rec.Timestamp.Add(s.ttl).Unix()
	}

	for attempt := 0; attempt < maxSortKeyAttempts; attempt++ {
		item.SK = sortKey(rec.Timestamp, s.nextSeq())

		av, err := dynamodbattribute.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}

		_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.table),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(SK)"),
		})
		if err == nil {
			return nil
		}

		var aerr awserr.Error
		if !errors.As(err, &aerr) || aerr.Code() != dynamodb.ErrCodeConditionalCheckFailedException {
			return fmt.Errorf("failed to put item: %w", err)
		}
	}

	return fmt.Errorf("failed to put item: no free sort key for %s after %d attempts", types.FormatTime(rec.Timestamp), maxSortKeyAttempts)
}
