package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type ledgerItem struct {
	Ledger    string   `dynamodbav:"ledger"`
	Version   string   `dynamodbav:"version"`
	Records   []Record `dynamodbav:"records"`
	UpdatedAt string   `dynamodbav:"updatedAt"`
}

// DynamoStore keeps the collection as a single DynamoDB item keyed by ledger
// name. Writes are conditional on the version read by Load.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	name      string
}

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName, name string) *DynamoStore {
	if client == nil {
		panic("booking: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("booking: table name cannot be empty")
	}
	if name == "" {
		name = "bookings"
	}
	return &DynamoStore{client: client, tableName: tableName, name: name}
}

func (s *DynamoStore) Load(ctx context.Context) (Snapshot, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: failed to fetch ledger: %w", err)
	}
	if out.Item == nil {
		return Snapshot{}, nil
	}
	var item ledgerItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Snapshot{}, fmt.Errorf("booking: failed to decode ledger: %w", err)
	}
	return Snapshot{Records: item.Records, Version: item.Version}, nil
}

func (s *DynamoStore) Save(ctx context.Context, records []Record, version string) error {
	if records == nil {
		records = []Record{}
	}
	item, err := attributevalue.MarshalMap(ledgerItem{
		Ledger:    s.name,
		Version:   uuid.NewString(),
		Records:   records,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("booking: failed to marshal ledger: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	if version == "" {
		input.ConditionExpression = aws.String("attribute_not_exists(ledger)")
	} else {
		input.ConditionExpression = aws.String("#version = :version")
		input.ExpressionAttributeNames = map[string]string{"#version": "version"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":version": &types.AttributeValueMemberS{Value: version},
		}
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrVersionConflict
		}
		return fmt.Errorf("booking: failed to persist ledger: %w", err)
	}
	return nil
}

func (s *DynamoStore) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ledger": &types.AttributeValueMemberS{Value: s.name},
	}
}
