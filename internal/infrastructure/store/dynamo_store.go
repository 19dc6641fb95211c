package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore keeps state in a DynamoDB table keyed by state key.
// It has no change feed of its own; cross-node notification comes from the
// Kafka relay when one is configured, otherwise peers stay stale until
// restart. That is within the best-effort contract.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	notifier  *notifier
}

type dynamoItem struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func ConnectDynamo(ctx context.Context, tableName string) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &DynamoStore{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
		notifier:  newNotifier(),
	}, nil
}

func (s *DynamoStore) Load(ctx context.Context, key string, v any) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get item: %w", err)
	}
	if out.Item == nil {
		return false, nil
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if err := json.Unmarshal([]byte(item.Value), v); err != nil {
		log.Printf("[Store] Discarding unparsable value for %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *DynamoStore) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.put(ctx, key, raw); err != nil {
		return err
	}
	s.notifier.publishSave(key, raw)
	return nil
}

func (s *DynamoStore) ApplyExternal(ctx context.Context, key string, raw []byte) error {
	if !json.Valid(raw) {
		return errors.New("external value is not valid JSON")
	}
	if err := s.put(ctx, key, raw); err != nil {
		return err
	}
	s.notifier.publishExternal(key, raw)
	return nil
}

func (s *DynamoStore) put(ctx context.Context, key string, raw []byte) error {
	av, err := attributevalue.MarshalMap(dynamoItem{
		Key:       key,
		Value:     string(raw),
		UpdatedAt: time.Now().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

func (s *DynamoStore) Subscribe(key string, fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeExternal(key, fn)
}

func (s *DynamoStore) OnSave(fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeSave(fn)
}

func (s *DynamoStore) Close() error { return nil }
