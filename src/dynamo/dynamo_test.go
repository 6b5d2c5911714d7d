package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetry-anomaly-monitor/src/types"
)

// fakeDynamo keeps put items in memory and serves them back two per page.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	puts      []*dynamodb.PutItemInput
	putErr    error
	conflicts int
	queryErr error
	queries  []*dynamodb.QueryInput
}

func (f *fakeDynamo) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	if aws.StringValue(in.ConditionExpression) == "attribute_not_exists(SK)" {
		sk := aws.StringValue(in.Item["SK"].S)
		for _, p := range f.puts {
			if aws.StringValue(p.Item["SK"].S) == sk {
				f.conflicts++
				return nil, awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "The conditional request failed", nil)
			}
		}
	}
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) QueryPagesWithContext(_ aws.Context, in *dynamodb.QueryInput, fn func(*dynamodb.QueryOutput, bool) bool, _ ...request.Option) error {
	f.queries = append(f.queries, in)
	if f.queryErr != nil {
		return f.queryErr
	}

	var items []map[string]*dynamodb.AttributeValue
	for _, p := range f.puts {
		items = append(items, p.Item)
	}
	for i := 0; i < len(items); i += 2 {
		end := min(i+2, len(items))
		if !fn(&dynamodb.QueryOutput{Items: items[i:end]}, end == len(items)) {
			break
		}
	}
	return nil
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestTelemetryStoreAppend(t *testing.T) {
	fake := &fakeDynamo{}
	s := NewTelemetryStore(fake, "TelemetryData", "device", 24*time.Hour)

	rec := types.StructuredRecord{Timestamp: t0, Temperature: 95.5, Voltage: 5.0, StatusCode: "X"}
	require.NoError(t, s.Append(context.Background(), rec))
	require.Len(t, fake.puts, 1)

	put := fake.puts[0]
	assert.Equal(t, "TelemetryData", aws.StringValue(put.TableName))

	var item TelemetryItem
	require.NoError(t, dynamodbattribute.UnmarshalMap(put.Item, &item))
	assert.Equal(t, TelemetryItem{
		PK:          "device",
		SK:          "2025-03-01T10:00:00.000000Z#000000000001",
		Timestamp:   "2025-03-01T10:00:00.000000Z",
		Temperature: 95.5,
		Voltage:     5.0,
		StatusCode:  "X",
		TTL:         t0.Add(24 * time.Hour).Unix(),
	}, item)
}

func TestTelemetryStoreAppendWithoutTTL(t *testing.T) {
	fake := &fakeDynamo{}
	s := NewTelemetryStore(fake, "TelemetryData", "device", 0)

	require.NoError(t, s.Append(context.Background(), types.StructuredRecord{Timestamp: t0}))
	_, hasTTL := fake.puts[0].Item["ttl"]
	assert.False(t, hasTTL)
}

func TestTelemetryStoreAppendFailure(t *testing.T) {
	boom := errors.New("ProvisionedThroughputExceededException")
	s := NewTelemetryStore(&fakeDynamo{putErr: boom}, "TelemetryData", "device", 0)

	err := s.Append(context.Background(), types.StructuredRecord{Timestamp: t0})
	assert.ErrorIs(t, err, boom)
}

func TestTelemetryStoreReadAcrossPages(t *testing.T) {
	fake := &fakeDynamo{}
	s := NewTelemetryStore(fake, "TelemetryData", "device", 0)
	ctx := context.Background()

	// written out of order, with a tie at t0+2s
	for _, r := range []types.StructuredRecord{
		{Timestamp: t0.Add(2 * time.Second), Temperature: 52, StatusCode: "C"},
		{Timestamp: t0, Temperature: 50, StatusCode: "A"},
		{Timestamp: t0.Add(2 * time.Second), Temperature: 53, StatusCode: "D"},
		{Timestamp: t0.Add(time.Second), Temperature: 51, StatusCode: "B"},
		{Timestamp: t0.Add(3 * time.Second), Temperature: 54, StatusCode: "E"},
	} {
		require.NoError(t, s.Append(ctx, r))
	}

	got, err := s.ReadAllOrderedByTime(ctx)
	require.NoError(t, err)

	var order []string
	for _, r := range got {
		order = append(order, r.StatusCode)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, order)
	assert.True(t, got[0].Timestamp.Equal(t0))

	require.Len(t, fake.queries, 1)
	assert.Equal(t, "PK = :device", aws.StringValue(fake.queries[0].KeyConditionExpression))
	assert.Equal(t, "device", aws.StringValue(fake.queries[0].ExpressionAttributeValues[":device"].S))
}

func TestTelemetryStoreReadFailure(t *testing.T) {
	s := NewTelemetryStore(&fakeDynamo{queryErr: errors.New("ResourceNotFoundException")}, "TelemetryData", "device", 0)

	_, err := s.ReadAllOrderedByTime(context.Background())
	var missing *types.MissingHistoryError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "dynamodb:TelemetryData", missing.Store)
}

func TestTelemetryStoreAppendNeverOverwrites(t *testing.T) {
	fake := &fakeDynamo{}
	// Two containers writing the same partition, each with its own sequence.
	first := NewTelemetryStore(fake, "TelemetryData", "device", 0)
	second := NewTelemetryStore(fake, "TelemetryData", "device", 0)

	require.NoError(t, first.Append(context.Background(), types.StructuredRecord{Timestamp: t0, Temperature: 1}))
	require.NoError(t, second.Append(context.Background(), types.StructuredRecord{Timestamp: t0, Temperature: 2}))

	require.Len(t, fake.puts, 2)
	assert.Equal(t, 1, fake.conflicts)
	assert.Equal(t, "attribute_not_exists(SK)", aws.StringValue(fake.puts[1].ConditionExpression))
	assert.Equal(t, "2025-03-01T10:00:00.000000Z#000000000002", aws.StringValue(fake.puts[1].Item["SK"].S))

	got, err := first.ReadAllOrderedByTime(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Temperature)
	assert.Equal(t, 2.0, got[1].Temperature)
}

func TestTelemetryStoreAppendGivesUpOnPersistentConflict(t *testing.T) {
	fake := &fakeDynamo{putErr: awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "The conditional request failed", nil)}
	s := NewTelemetryStore(fake, "TelemetryData", "device", 0)

	err := s.Append(context.Background(), types.StructuredRecord{Timestamp: t0})
	assert.ErrorContains(t, err, "no free sort key")
}
