package images

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"labelme/models"
)

func TestCoordinator_RequestUploadSlot(t *testing.T) {
	t.Run("每次請求都產生不同的 ID 與三段式 key", func(t *testing.T) {
		deps := setupTest(t)
		var keys []string
		deps.objects.EXPECT().
			PresignPut(gomock.Any(), gomock.Any(), "image/png", map[string]string{"label": "a%20cat", "username": "alice"}, DefaultUploadURLTTL).
			DoAndReturn(func(_ context.Context, key, _ string, _ map[string]string, _ time.Duration) (string, http.Header, error) {
				keys = append(keys, key)
				return "https://s3/" + key, http.Header{"X-Amz-Meta-Label": {"a%20cat"}, "Host": {"s3"}}, nil
			}).Times(2)

		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		intent := UploadIntent{FileName: "cat.png", ContentType: "image/png", Label: "a cat"}
		first, err := c.RequestUploadSlot(context.Background(), intent, testActor)
		require.NoError(t, err)
		second, err := c.RequestUploadSlot(context.Background(), intent, testActor)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		for i, slot := range []*UploadSlot{first, second} {
			parts, err := ParseObjectKey(keys[i])
			require.NoError(t, err)
			assert.Equal(t, ObjectKey{UserID: "user-1", ImageID: slot.ID, FileName: "cat.png"}, parts)
			assert.Equal(t, map[string]string{"X-Amz-Meta-Label": "a%20cat"}, slot.Headers)
		}
	})

	t.Run("缺少欄位", func(t *testing.T) {
		deps := setupTest(t)
		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)

		_, err := c.RequestUploadSlot(context.Background(), UploadIntent{ContentType: "image/png"}, testActor)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
		_, err = c.RequestUploadSlot(context.Background(), UploadIntent{FileName: "a.png"}, testActor)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("presign 失敗", func(t *testing.T) {
		deps := setupTest(t)
		deps.objects.EXPECT().PresignPut(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", nil, errors.New("boom"))
		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)

		_, err := c.RequestUploadSlot(context.Background(), UploadIntent{FileName: "a.png", ContentType: "image/png"}, testActor)
		assert.Equal(t, models.KindUpstream, models.KindOf(err))
		assert.Equal(t, "Error generating upload URL", models.PublicMessage(err, ""))
	})
}

func TestCoordinator_RequestBulkUploadSlots(t *testing.T) {
	t.Run("保持輸入順序", func(t *testing.T) {
		deps := setupTest(t)
		var mu sync.Mutex
		byFile := map[string]string{}
		deps.objects.EXPECT().
			PresignPut(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), DefaultBulkUploadURLTTL).
			DoAndReturn(func(_ context.Context, key, _ string, _ map[string]string, _ time.Duration) (string, http.Header, error) {
				mu.Lock()
				defer mu.Unlock()
				parts, _ := ParseObjectKey(key)
				byFile[parts.FileName] = parts.ImageID
				return "https://s3/" + key, nil, nil
			}).Times(5)

		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		intents := []UploadIntent{
			{FileName: "0.png", ContentType: "image/png"},
			{FileName: "1.png", ContentType: "image/png"},
			{FileName: "2.png", ContentType: "image/png"},
			{FileName: "3.png", ContentType: "image/png"},
			{FileName: "4.png", ContentType: "image/png"},
		}
		slots, err := c.RequestBulkUploadSlots(context.Background(), intents, testActor)
		require.NoError(t, err)
		require.Len(t, slots, 5)
		for i, slot := range slots {
			assert.Equal(t, byFile[intents[i].FileName], slot.ID)
			assert.True(t, strings.HasSuffix(slot.UploadURL, "/"+intents[i].FileName))
		}
	})

	t.Run("空清單", func(t *testing.T) {
		deps := setupTest(t)
		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		_, err := c.RequestBulkUploadSlots(context.Background(), nil, testActor)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("任一失敗則整體失敗", func(t *testing.T) {
		deps := setupTest(t)
		deps.objects.EXPECT().PresignPut(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, key, _ string, _ map[string]string, _ time.Duration) (string, http.Header, error) {
				if strings.HasSuffix(key, "bad.png") {
					return "", nil, errors.New("boom")
				}
				return "https://s3/" + key, nil, nil
			}).Times(2)
		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		_, err := c.RequestBulkUploadSlots(context.Background(), []UploadIntent{
			{FileName: "ok.png", ContentType: "image/png"},
			{FileName: "bad.png", ContentType: "image/png"},
		}, testActor)
		assert.Equal(t, models.KindUpstream, models.KindOf(err))
	})
}

func TestCoordinator_StoreExternalReference(t *testing.T) {
	deps := setupTest(t)
	var stored *models.Image
	deps.metadata.EXPECT().Put(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, img *models.Image) error {
		stored = img
		return nil
	})
	deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
	image, err := c.StoreExternalReference(context.Background(), "https://x/y/z.jpg?qq=1", "", testActor)
	require.NoError(t, err)

	assert.Equal(t, "z.jpg", image.FileName)
	assert.True(t, image.IsExternal)
	assert.Equal(t, "https://x/y/z.jpg?qq=1", image.URL)
	assert.Empty(t, image.S3Key)
	assert.Equal(t, fixedNow, image.CreatedAt)
	assert.Equal(t, "alice", image.CreatedBy)
	assert.Nil(t, image.UpdatedAt)
	assert.Same(t, stored, image)

	_, err = c.StoreExternalReference(context.Background(), " ", "", testActor)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestCoordinator_UploadDirect(t *testing.T) {
	intent := UploadIntent{FileName: "cat.png", ContentType: "image/png", Label: "cat"}

	t.Run("成功", func(t *testing.T) {
		deps := setupTest(t)
		var objectKey string
		deps.objects.EXPECT().PutObject(gomock.Any(), gomock.Any(), "image/png", gomock.Any(), []byte("png")).
			DoAndReturn(func(_ context.Context, key, _ string, _ map[string]string, _ []byte) error {
				objectKey = key
				return nil
			})
		deps.metadata.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		image, err := c.UploadDirect(context.Background(), intent, []byte("png"), testActor)
		require.NoError(t, err)
		assert.Equal(t, objectKey, image.S3Key)
		assert.False(t, image.IsExternal)
		assert.Equal(t, "cat", image.Label)
	})

	t.Run("物件寫入失敗不寫 metadata", func(t *testing.T) {
		deps := setupTest(t)
		deps.objects.EXPECT().PutObject(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("boom"))

		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		_, err := c.UploadDirect(context.Background(), intent, []byte("png"), testActor)
		assert.Equal(t, models.KindUpstream, models.KindOf(err))
	})

	t.Run("metadata 寫入失敗", func(t *testing.T) {
		deps := setupTest(t)
		deps.objects.EXPECT().PutObject(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		deps.metadata.EXPECT().Put(gomock.Any(), gomock.Any()).Return(errors.New("boom"))

		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		_, err := c.UploadDirect(context.Background(), intent, []byte("png"), testActor)
		assert.Equal(t, models.KindUpstream, models.KindOf(err))
	})

	t.Run("空內容", func(t *testing.T) {
		deps := setupTest(t)
		c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
		_, err := c.UploadDirect(context.Background(), intent, nil, testActor)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})
}

func TestCoordinator_ConfirmUploads(t *testing.T) {
	deps := setupTest(t)
	deps.objects.EXPECT().HeadMetadata(gomock.Any(), "user-1/a/a.png").Return(map[string]string{}, nil)
	deps.objects.EXPECT().HeadMetadata(gomock.Any(), "user-1/b/b.png").Return(nil, models.ErrObjectNotFound)
	var written []*models.Image
	deps.metadata.EXPECT().BatchPut(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, images []*models.Image) error {
		written = images
		return nil
	})
	deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	c := NewCoordinator(deps.objects, deps.metadata, deps.opts...)
	report, err := c.ConfirmUploads(context.Background(), []ConfirmItem{
		{ID: "a", FileName: "a.png", Label: "first"},
		{ID: "b", FileName: "b.png"},
		{ID: "c", FileName: "c.png", S3Key: "someone-else/c/c.png"},
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, report.Confirmed)
	require.Len(t, written, 1)
	assert.Equal(t, "user-1/a/a.png", written[0].S3Key)
	assert.Equal(t, "first", written[0].Label)
	assert.ElementsMatch(t, []ItemFailure{
		{Item: "b", Reason: "uploaded object not found"},
		{Item: "c", Reason: "s3Key does not match the uploaded file"},
	}, report.Failures)

	_, err = c.ConfirmUploads(context.Background(), nil, testActor)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}
