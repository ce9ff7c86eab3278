package helpers

import (
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// AttemptCache counts render attempts per job slug with DynamoDB as the backend.
// Workers use it to stop retrying jobs that keep failing.
type AttemptCache struct {
	tableName string
	svc       *dynamodb.DynamoDB
	mu        sync.Mutex
}

// NewAttemptCache creates a new AttemptCache instance with DynamoDB as the backend.
func NewAttemptCache(sess *session.Session, tableName string) *AttemptCache {
	svc := dynamodb.New(sess)
	return &AttemptCache{
		tableName: tableName,
		svc:       svc,
	}
}

// Increment adds a slug to the cache or increments its attempt count if it already exists.
func (c *AttemptCache) Increment(slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"key": {S: aws.String(slug)},
		},
		UpdateExpression: aws.String("SET #attempts = if_not_exists(#attempts, :start) + :inc"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":start": {N: aws.String("0")},
			":inc":   {N: aws.String("1")},
		},
		ExpressionAttributeNames: map[string]*string{
			"#attempts": aws.String("value"),
		},
		ReturnValues: aws.String("UPDATED_NEW"),
	}

	_, err := c.svc.UpdateItem(input)
	return err
}

// Count returns the number of attempts recorded for a slug. Unknown slugs count zero.
func (c *AttemptCache) Count(slug string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	getInput := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"key": {S: aws.String(slug)},
		},
	}

	result, err := c.svc.GetItem(getInput)
	if err != nil {
		return 0, err
	}

	if len(result.Item) > 0 {
		val := result.Item["value"].N
		if val != nil {
			return strconv.Atoi(*val)
		}
	}

	return 0, nil
}

// Clear removes a slug from the cache once its job has been completed.
func (c *AttemptCache) Clear(slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleteInput := &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"key": {S: aws.String(slug)},
		},
	}

	_, err := c.svc.DeleteItem(deleteInput)
	return err
}
