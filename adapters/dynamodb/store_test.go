package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelme/models"
)

type fakeClient struct {
	IClient
	putItem        func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	batchWriteItem func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
	getItem        func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	updateItem     func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	scan           func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItem(in)
}

func (f *fakeClient) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	return f.batchWriteItem(in)
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(in)
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.updateItem(in)
}

func (f *fakeClient) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scan(in)
}

func newTestStore(t *testing.T, client *fakeClient) *ImageStore {
	store, err := NewImageStore(client, "images", WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
	require.NoError(t, err)
	return store
}

var createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNewImageStore(t *testing.T) {
	_, err := NewImageStore(nil, "images")
	assert.Error(t, err)
	_, err = NewImageStore(&fakeClient{}, "")
	assert.Error(t, err)
}

func TestImageStore_Put(t *testing.T) {
	var got map[string]types.AttributeValue
	store := newTestStore(t, &fakeClient{putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		got = in.Item
		return &dynamodb.PutItemOutput{}, nil
	}})

	err := store.Put(context.Background(), &models.Image{ID: "a", FileName: "z.jpg", URL: "https://x/z.jpg", IsExternal: true, CreatedAt: createdAt})
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: "a"}, got["id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: ""}, got["label"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, got["isExternal"])
	assert.NotContains(t, got, "s3Key")
	assert.NotContains(t, got, "updatedAt")
	assert.NotContains(t, got, "signedUrlExpiresAt")
}

func TestImageStore_BatchPut(t *testing.T) {
	t.Run("超過 25 筆", func(t *testing.T) {
		store := newTestStore(t, &fakeClient{})
		err := store.BatchPut(context.Background(), make([]*models.Image, 26))
		assert.ErrorIs(t, err, models.ErrBatchTooLarge)
	})

	t.Run("重送未處理的項目", func(t *testing.T) {
		var sizes []int
		store := newTestStore(t, &fakeClient{batchWriteItem: func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			writes := in.RequestItems["images"]
			sizes = append(sizes, len(writes))
			if len(sizes) == 1 {
				return &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{"images": writes[:1]}}, nil
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		}})

		err := store.BatchPut(context.Background(), []*models.Image{{ID: "a"}, {ID: "b"}, {ID: "c"}})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 1}, sizes)
	})

	t.Run("請求失敗不重試", func(t *testing.T) {
		calls := 0
		store := newTestStore(t, &fakeClient{batchWriteItem: func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			calls++
			return nil, errors.New("throttled")
		}})

		err := store.BatchPut(context.Background(), []*models.Image{{ID: "a"}})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestImageStore_Get(t *testing.T) {
	item, err := attributevalue.MarshalMap(&models.Image{ID: "a", FileName: "cat.png", S3Key: "u/a/cat.png", CreatedAt: createdAt})
	require.NoError(t, err)

	store := newTestStore(t, &fakeClient{getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		if in.Key["id"].(*types.AttributeValueMemberS).Value == "a" {
			return &dynamodb.GetItemOutput{Item: item}, nil
		}
		return &dynamodb.GetItemOutput{}, nil
	}})

	image, err := store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "u/a/cat.png", image.S3Key)
	assert.True(t, createdAt.Equal(image.CreatedAt))

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrImageNotFound)
}

func TestImageStore_UpdateLabel(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		attributes, err := attributevalue.MarshalMap(&models.Image{ID: "a", Label: "dog", UpdatedBy: "alice"})
		require.NoError(t, err)
		store := newTestStore(t, &fakeClient{updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			assert.Equal(t, types.ReturnValueAllNew, in.ReturnValues)
			assert.NotNil(t, in.ConditionExpression)
			assert.Contains(t, *in.ConditionExpression, "attribute_exists")
			return &dynamodb.UpdateItemOutput{Attributes: attributes}, nil
		}})

		image, err := store.UpdateLabel(context.Background(), "a", "dog", createdAt, "alice")
		require.NoError(t, err)
		assert.Equal(t, "dog", image.Label)
	})

	t.Run("紀錄不存在", func(t *testing.T) {
		store := newTestStore(t, &fakeClient{updateItem: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{Message: lo.ToPtr("conditional request failed")}
		}})

		_, err := store.UpdateLabel(context.Background(), "missing", "dog", createdAt, "alice")
		assert.ErrorIs(t, err, models.ErrImageNotFound)
		err = store.UpdateURL(context.Background(), "missing", "https://signed", createdAt)
		assert.ErrorIs(t, err, models.ErrImageNotFound)
	})
}

func TestImageStore_Scan(t *testing.T) {
	lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "b"}}
	var inputs []*dynamodb.ScanInput
	store := newTestStore(t, &fakeClient{scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
		inputs = append(inputs, in)
		if in.ExclusiveStartKey == nil {
			items := make([]map[string]types.AttributeValue, 0, 2)
			for _, id := range []string{"a", "b"} {
				item, err := attributevalue.MarshalMap(&models.Image{ID: id})
				require.NoError(t, err)
				items = append(items, item)
			}
			return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: lastKey}, nil
		}
		return &dynamodb.ScanOutput{}, nil
	}})

	first, err := store.Scan(context.Background(), 2, "")
	require.NoError(t, err)
	require.Len(t, first.Images, 2)
	require.NotEmpty(t, first.Cursor)
	assert.Equal(t, int32(2), *inputs[0].Limit)

	second, err := store.Scan(context.Background(), 2, first.Cursor)
	require.NoError(t, err)
	assert.Empty(t, second.Images)
	assert.Empty(t, second.Cursor)
	assert.Equal(t, lastKey, inputs[1].ExclusiveStartKey)

	for _, cursor := range []string{"%%%", "bm90LWpzb24", "e30"} {
		_, err = store.Scan(context.Background(), 2, cursor)
		assert.ErrorIs(t, err, models.ErrInvalidCursor, cursor)
	}
}
