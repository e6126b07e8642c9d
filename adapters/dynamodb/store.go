package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"

	"labelme/images"
	"labelme/models"
)

const keyAttribute = "id"

var errUnprocessedItems = errors.New("unprocessed items remain")

// ImageStore 以 DynamoDB 資料表保存圖片 metadata，主鍵為 id
type ImageStore struct {
	client     IClient
	table      string
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

type ImageStoreOption func(*ImageStore)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) ImageStoreOption {
	return func(s *ImageStore) {
		s.logger = logger
	}
}

// WithBackOff 設置重送未處理批次項目的退避策略
func WithBackOff(newBackOff func() backoff.BackOff) ImageStoreOption {
	return func(s *ImageStore) {
		s.newBackOff = newBackOff
	}
}

func NewImageStore(client IClient, table string, opts ...ImageStoreOption) (*ImageStore, error) {
	const op = "NewImageStore"
	if client == nil {
		return nil, fmt.Errorf("[%s] dynamodb client cannot be nil", op)
	}
	if table == "" {
		return nil, fmt.Errorf("[%s] table cannot be empty", op)
	}
	store := &ImageStore{
		client: client,
		table:  table,
		logger: slog.Default(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxElapsedTime = 5 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(store)
	}
	store.logger = store.logger.With(slog.String("caller", "DynamoImageStore"), slog.String("table", table))
	return store, nil
}

// EnsureTable 在資料表不存在時建立，用於本機開發環境
func (s *ImageStore) EnsureTable(ctx context.Context) error {
	const op = "EnsureTable"
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("[%s] Fail to describe table, err=%w", op, err)
	}
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttribute), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to create table, err=%w", op, err)
	}
	s.logger.Info("Created table")
	return nil
}

func (s *ImageStore) Put(ctx context.Context, image *models.Image) error {
	const op = "Put"
	item, err := attributevalue.MarshalMap(image)
	if err != nil {
		return fmt.Errorf("[%s] Fail to marshal image, err=%w", op, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: item}); err != nil {
		return fmt.Errorf("[%s] Fail to put item, id=%s, err=%w", op, image.ID, err)
	}
	return nil
}

// BatchPut 一次寫入最多 25 筆，DynamoDB 退回的未處理項目會以退避重送
func (s *ImageStore) BatchPut(ctx context.Context, batch []*models.Image) error {
	const op = "BatchPut"
	if len(batch) > models.MaxBatchWriteItems {
		return fmt.Errorf("[%s] size=%d, err=%w", op, len(batch), models.ErrBatchTooLarge)
	}
	if len(batch) == 0 {
		return nil
	}

	writes := make([]types.WriteRequest, 0, len(batch))
	for _, image := range batch {
		item, err := attributevalue.MarshalMap(image)
		if err != nil {
			return fmt.Errorf("[%s] Fail to marshal image, id=%s, err=%w", op, image.ID, err)
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	pending := map[string][]types.WriteRequest{s.table: writes}
	write := func() error {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		pending = out.UnprocessedItems
		s.logger.Debug("Retry unprocessed items", slog.Int("count", len(pending[s.table])))
		return errUnprocessedItems
	}
	if err := backoff.Retry(write, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("[%s] Fail to batch write items, err=%w", op, err)
	}
	return nil
}

func (s *ImageStore) Get(ctx context.Context, id string) (*models.Image, error) {
	const op = "Get"
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to get item, id=%s, err=%w", op, id, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("[%s] id=%s, err=%w", op, id, models.ErrImageNotFound)
	}
	var image models.Image
	if err := attributevalue.UnmarshalMap(out.Item, &image); err != nil {
		return nil, fmt.Errorf("[%s] Fail to unmarshal item, id=%s, err=%w", op, id, err)
	}
	return &image, nil
}

// UpdateLabel 只在紀錄存在時更新，避免建立只有標籤的殘缺紀錄
func (s *ImageStore) UpdateLabel(ctx context.Context, id, label string, updatedAt time.Time, updatedBy string) (*models.Image, error) {
	const op = "UpdateLabel"
	update := expression.
		Set(expression.Name("label"), expression.Value(label)).
		Set(expression.Name("updatedAt"), expression.Value(updatedAt)).
		Set(expression.Name("updatedBy"), expression.Value(updatedBy))
	out, err := s.conditionalUpdate(ctx, id, update, types.ReturnValueAllNew)
	if err != nil {
		return nil, fmt.Errorf("[%s] %w", op, err)
	}
	var image models.Image
	if err := attributevalue.UnmarshalMap(out.Attributes, &image); err != nil {
		return nil, fmt.Errorf("[%s] Fail to unmarshal attributes, id=%s, err=%w", op, id, err)
	}
	return &image, nil
}

// UpdateURL 寫回換發的 presigned URL，不會更動 updatedAt
func (s *ImageStore) UpdateURL(ctx context.Context, id, url string, expiresAt time.Time) error {
	const op = "UpdateURL"
	update := expression.
		Set(expression.Name("url"), expression.Value(url)).
		Set(expression.Name("signedUrlExpiresAt"), expression.Value(expiresAt))
	if _, err := s.conditionalUpdate(ctx, id, update, types.ReturnValueNone); err != nil {
		return fmt.Errorf("[%s] %w", op, err)
	}
	return nil
}

func (s *ImageStore) conditionalUpdate(ctx context.Context, id string, update expression.UpdateBuilder, returnValues types.ReturnValue) (*dynamodb.UpdateItemOutput, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(keyAttribute))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("Fail to build expression, err=%w", err)
	}
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       itemKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              returnValues,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil, fmt.Errorf("id=%s, err=%w", id, models.ErrImageNotFound)
		}
		return nil, fmt.Errorf("Fail to update item, id=%s, err=%w", id, err)
	}
	return out, nil
}

func (s *ImageStore) Delete(ctx context.Context, id string) error {
	const op = "Delete"
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String(s.table), Key: itemKey(id)})
	if err != nil {
		return fmt.Errorf("[%s] Fail to delete item, id=%s, err=%w", op, id, err)
	}
	return nil
}

// Scan 讀取一頁資料。cursor 是 LastEvaluatedKey 經 JSON 與 base64url 編碼後的字串。
func (s *ImageStore) Scan(ctx context.Context, limit int, cursor string) (*images.Page, error) {
	const op = "Scan"
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(int32(limit)),
	}
	if cursor != "" {
		startKey, err := decodeCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("[%s] %w", op, err)
		}
		input.ExclusiveStartKey = startKey
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to scan table, err=%w", op, err)
	}
	page := &images.Page{Images: make([]*models.Image, 0, len(out.Items))}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &page.Images); err != nil {
		return nil, fmt.Errorf("[%s] Fail to unmarshal items, err=%w", op, err)
	}
	if len(out.LastEvaluatedKey) > 0 {
		if page.Cursor, err = encodeCursor(out.LastEvaluatedKey); err != nil {
			return nil, fmt.Errorf("[%s] %w", op, err)
		}
	}
	return page, nil
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{keyAttribute: &types.AttributeValueMemberS{Value: id}}
}

func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	var plain map[string]string
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", fmt.Errorf("Fail to unmarshal last evaluated key, err=%w", err)
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("Fail to encode cursor, err=%w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, models.ErrInvalidCursor
	}
	var plain map[string]string
	if err := json.Unmarshal(raw, &plain); err != nil || plain[keyAttribute] == "" {
		return nil, models.ErrInvalidCursor
	}
	key, err := attributevalue.MarshalMap(lo.PickByKeys(plain, []string{keyAttribute}))
	if err != nil {
		return nil, models.ErrInvalidCursor
	}
	return key, nil
}
