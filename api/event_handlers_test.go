package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redisAdapter "labelme/adapters/redis"
	"labelme/images"
	"labelme/models"
)

const s3Notification = `{
  "Records": [
    {"eventName": "ObjectCreated:Put", "s3": {"bucket": {"name": "labels"}, "object": {"key": "user-1/img-1/my+cat.png"}}},
    {"eventName": "ObjectRemoved:Delete", "s3": {"bucket": {"name": "labels"}, "object": {"key": "user-1/img-2/dog.png"}}},
    {"eventName": "ObjectCreated:Put", "s3": {"bucket": {"name": "labels"}, "object": {"key": "broken"}}}
  ]
}`

func objectEventsHeader(token string) map[string]string {
	return map[string]string{headerObjectEventToken: token}
}

func TestObjectEvents_Auth(t *testing.T) {
	t.Run("未設定密鑰時停用", func(t *testing.T) {
		s := setupServer(t, func(c *ServerConfig) { c.Auth.ObjectEventsToken = "" })
		rec := s.do(t, http.MethodPost, "/internal/object-events", s3Notification, objectEventsHeader(""))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("錯誤的密鑰", func(t *testing.T) {
		s := setupServer(t)
		rec := s.do(t, http.MethodPost, "/internal/object-events", s3Notification, objectEventsHeader("wrong"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", messageOf(t, rec))
	})
}

func TestObjectEvents_Inline(t *testing.T) {
	s := setupServer(t)

	s.objects.EXPECT().HeadMetadata(gomock.Any(), "user-1/img-1/my cat.png").
		Return(map[string]string{"label": "cat", "username": "alice"}, nil)

	rec := s.do(t, http.MethodPost, "/internal/object-events", s3Notification, objectEventsHeader(testObjectEventsToken))
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[images.IngestReport](t, rec)
	assert.Equal(t, []string{"img-1"}, report.Ingested)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "broken", report.Skipped[0].Item)

	stored, err := s.metadata.Get(context.Background(), "img-1")
	require.NoError(t, err)
	assert.Equal(t, "my cat.png", stored.FileName)
	assert.Equal(t, "cat", stored.Label)
	assert.Equal(t, "alice", stored.CreatedBy)

	t.Run("沒有事件", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/internal/object-events", `{"Records": []}`, objectEventsHeader(testObjectEventsToken))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[images.IngestReport](t, rec).Ingested)
	})

	t.Run("無效的通知", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/internal/object-events", `not json`, objectEventsHeader(testObjectEventsToken))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid object event notification", messageOf(t, rec))
	})
}

func TestObjectEvents_InlineTransientFailure(t *testing.T) {
	s := setupServer(t)
	s.objects.EXPECT().HeadMetadata(gomock.Any(), "user-1/img-9/cat.png").
		Return(nil, errors.New("SlowDown: 503 throttled"))

	body := `{"Records": [{"eventName": "ObjectCreated:Put", "s3": {"bucket": {"name": "labels"}, "object": {"key": "user-1/img-9/cat.png"}}}]}`
	rec := s.do(t, http.MethodPost, "/internal/object-events", body, objectEventsHeader(testObjectEventsToken))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Fail to ingest object events", messageOf(t, rec))

	_, err := s.metadata.Get(context.Background(), "img-9")
	assert.ErrorIs(t, err, models.ErrImageNotFound)
}

func TestObjectEvents_Queued(t *testing.T) {
	s := setupServer(t)
	producer := redisAdapter.NewMockIProducer[images.ObjectEventBatch](gomock.NewController(t))
	s.impl.producer = producer

	producer.EXPECT().PublishSync(gomock.Any(), images.ObjectEventBatch{Events: []images.ObjectEvent{
		{EventName: "ObjectCreated:Put", Bucket: "labels", Key: "user-1/img-1/my+cat.png"},
		{EventName: "ObjectRemoved:Delete", Bucket: "labels", Key: "user-1/img-2/dog.png"},
		{EventName: "ObjectCreated:Put", Bucket: "labels", Key: "broken"},
	}}).Return("1-0", nil)

	rec := s.do(t, http.MethodPost, "/internal/object-events", s3Notification, objectEventsHeader(testObjectEventsToken))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "Queued", messageOf(t, rec))

	producer.EXPECT().PublishSync(gomock.Any(), gomock.Any()).Return("", redisAdapter.ErrProducerClosed)
	rec = s.do(t, http.MethodPost, "/internal/object-events", s3Notification, objectEventsHeader(testObjectEventsToken))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Fail to queue object events", messageOf(t, rec))
}

func TestObjectEvents_StreamWriteFailure(t *testing.T) {
	s := setupServer(t)
	client, mock := redismock.NewClientMock()
	defer client.Close()
	producer, err := redisAdapter.NewProducer[images.ObjectEventBatch](client, "object-events")
	require.NoError(t, err)
	producer.Start()
	defer producer.Close()
	s.impl.producer = producer

	batch, err := images.DecodeS3Notification([]byte(s3Notification))
	require.NoError(t, err)
	values, err := redisAdapter.DefaultParseToMessage(images.ObjectEventBatch{Events: batch})
	require.NoError(t, err)
	mock.ExpectXAdd(&redis.XAddArgs{Stream: "object-events", Values: values}).SetErr(redis.ErrClosed)

	rec := s.do(t, http.MethodPost, "/internal/object-events", s3Notification, objectEventsHeader(testObjectEventsToken))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Fail to queue object events", messageOf(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGalleryEvents(t *testing.T) {
	s := setupServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/label-images/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// 收到header時已完成訂閱
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.impl.hub.Publish(galleryChannel, models.GalleryEvent{Type: models.GalleryEventLabeled, ID: "img-1", At: at}))

	reader := bufio.NewReader(resp.Body)
	var eventName, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	assert.Equal(t, "labeled", eventName)

	var event models.GalleryEvent
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, "img-1", event.ID)
	assert.True(t, at.Equal(event.At))
}
