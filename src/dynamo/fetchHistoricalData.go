package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

// ReadAllOrderedByTime queries the device partition page by page.
func (s *TelemetryStore) ReadAllOrderedByTime(ctx context.Context) ([]types.StructuredRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :device"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":device": {S: aws.String(s.deviceID)},
		},
		ConsistentRead: aws.Bool(true),
	}

	var items []TelemetryItem
	var pageErr error
	err := s.client.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		var batch []TelemetryItem
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			pageErr = err
			return false
		}
		items = append(items, batch...)
		return true
	})
	if err == nil {
		err = pageErr
	}
	if err != nil {
		return nil, &types.MissingHistoryError{Store: s.Name(), Err: err}
	}

	records := make([]types.StructuredRecord, 0, len(items))
	for _, item := range items {
		ts, err := types.ParseTime(item.Timestamp)
		if err != nil {
			return nil, &types.MissingHistoryError{Store: s.Name(), Err: err}
		}
		records = append(records, types.StructuredRecord{
			Timestamp:   ts,
			Temperature: item.Temperature,
			Voltage:     item.Voltage,
			StatusCode:  item.StatusCode,
		})
	}

	store.SortByTime(records)
	return records, nil
}

var (
	_ store.RecordWriter  = (*TelemetryStore)(nil)
	_ store.HistoryReader = (*TelemetryStore)(nil)
)
