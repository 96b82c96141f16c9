package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/notespace-api/internal/secret"
)

// secretItem is the table shape for both secret tables (OTP challenges and
// refresh tokens). The value blob is opaque to this layer.
type secretItem struct {
	SecretKey string `dynamodbav:"secret_key"`
	Value     []byte `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// SecretStore implements secret.Store on one DynamoDB table.
type SecretStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewSecretStore(client *dynamodb.Client, tableName string) *SecretStore {
	return &SecretStore{client: client, tableName: tableName}
}

func (s *SecretStore) Put(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	item, err := attributevalue.MarshalMap(secretItem{
		SecretKey: key,
		Value:     value,
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal secret: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	return err
}

func (s *SecretStore) Get(ctx context.Context, key string) (secret.Record, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            strKey("secret_key", key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return secret.Record{}, false, err
	}
	if out.Item == nil {
		return secret.Record{}, false, nil
	}
	var item secretItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return secret.Record{}, false, err
	}
	return toRecord(item), true, nil
}

func (s *SecretStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey("secret_key", key),
	})
	return err
}

// SweepExpired scans for records past expiry and deletes them one by one.
// Best-effort: an item that fails to delete is logged and left for the next
// sweep.
func (s *SecretStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("expires_at < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
		ProjectionExpression: aws.String("secret_key"),
	})
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, item := range out.Items {
		keyAttr, ok := item["secret_key"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if err := s.Delete(ctx, keyAttr.Value); err != nil {
			slog.Warn("failed to delete expired secret", "table", s.tableName, "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *SecretStore) List(ctx context.Context) ([]secret.Record, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return nil, err
	}
	var items []secretItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, err
	}
	records := make([]secret.Record, 0, len(items))
	for _, item := range items {
		records = append(records, toRecord(item))
	}
	return records, nil
}

func toRecord(item secretItem) secret.Record {
	return secret.Record{
		Key:       item.SecretKey,
		Value:     item.Value,
		ExpiresAt: time.Unix(item.ExpiresAt, 0),
	}
}
