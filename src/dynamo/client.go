package dynamo

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

var (
	sessionInstance *session.Session
	sessionOnce     sync.Once

	clientInstance *dynamodb.DynamoDB
	clientOnce     sync.Once
)

// GetSession returns the process-wide AWS session. The region of the first call wins.
func GetSession(region string) *session.Session {
	sessionOnce.Do(func() {
		sessionInstance = session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))
	})

	return sessionInstance
}

func GetDynamoDBClient(region string) *dynamodb.DynamoDB {
	clientOnce.Do(func() {
		clientInstance = dynamodb.New(GetSession(region))
	})

	return clientInstance
}
