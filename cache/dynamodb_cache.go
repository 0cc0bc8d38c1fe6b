package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/layout"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI defines the interface for DynamoDB operations
type DynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

const (
	defaultTableName = "TreeDiagramCache"
	// slotKey is the partition key of the single cached diagram. The table holds
	// the latest layout only; its structure key is stored alongside it.
	slotKey = "diagram"
)

// CacheItem is the DynamoDB representation of a cached diagram
type CacheItem struct {
	Key       string          `dynamodbav:"key"`
	Structure string          `dynamodbav:"structure"`
	Data      *layout.Diagram `dynamodbav:"data"`
	Timestamp int64           `dynamodbav:"timestamp"`
	TTL       int64           `dynamodbav:"ttl"`
}

// DynamoDBCache implements Provider using DynamoDB
type DynamoDBCache struct {
	client    DynamoDBAPI
	tableName string
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewDynamoDBCache creates a new DynamoDB cache provider using the default AWS config
func NewDynamoDBCache(ctx context.Context, tableName string) (*DynamoDBCache, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return NewDynamoDBCacheWithClient(dynamodb.NewFromConfig(cfg), tableName), nil
}

// NewDynamoDBCacheWithClient creates a new DynamoDB cache provider with a custom client
func NewDynamoDBCacheWithClient(client DynamoDBAPI, tableName string) *DynamoDBCache {
	if tableName == "" {
		tableName = defaultTableName
	}
	return &DynamoDBCache{
		client:    client,
		tableName: tableName,
		cacheTTL:  5 * time.Minute,
		now:       time.Now,
	}
}

// Initialize creates the DynamoDB table if it doesn't exist
func (c *DynamoDBCache) Initialize(ctx context.Context) error {
	_, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("error describing table %s: %w", c.tableName, err)
	}

	_, err = c.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("key"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("key"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("error creating table %s: %w", c.tableName, err)
	}

	// Let DynamoDB expire stale items on its own
	_, err = c.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(c.tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("ttl"),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("error enabling ttl on %s: %w", c.tableName, err)
	}
	return nil
}

func (c *DynamoDBCache) slot() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: slotKey},
	}
}

// GetDiagram retrieves the diagram if the stored one was laid out from key
func (c *DynamoDBCache) GetDiagram(ctx context.Context, key string) (*layout.Diagram, bool) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.slot(),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("dynamodb get failed", "err", err)
		return nil, false
	}

	if result.Item == nil {
		return nil, false
	}

	var item CacheItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false
	}

	// DynamoDB deletes expired items lazily, so check the deadline here too
	if c.now().Unix() > item.TTL {
		if err := c.InvalidateCache(ctx); err != nil {
			logging.FromContext(ctx).Warn("error deleting expired cache item", "err", err)
		}
		return nil, false
	}

	if item.Structure != key || item.Data == nil {
		return nil, false
	}
	return item.Data, true
}

// SetDiagram stores d as the cached diagram for key
func (c *DynamoDBCache) SetDiagram(ctx context.Context, key string, d *layout.Diagram) {
	now := c.now()

	item := CacheItem{
		Key:       slotKey,
		Structure: key,
		Data:      d,
		Timestamp: now.Unix(),
		TTL:       now.Add(c.cacheTTL).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		// If we can't marshal the item, invalidate the cache
		if err := c.InvalidateCache(ctx); err != nil {
			logging.FromContext(ctx).Warn("error invalidating cache after marshal failure", "err", err)
		}
		return
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      av,
	})
	if err != nil {
		// If we can't store the item, invalidate the cache
		if err := c.InvalidateCache(ctx); err != nil {
			logging.FromContext(ctx).Warn("error invalidating cache after put failure", "err", err)
		}
	}
}

// InvalidateCache removes the cached diagram
func (c *DynamoDBCache) InvalidateCache(ctx context.Context) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.slot(),
	})
	return err
}

// SetCacheTTL sets the cache time-to-live duration
func (c *DynamoDBCache) SetCacheTTL(ttl time.Duration) {
	c.cacheTTL = ttl
}
