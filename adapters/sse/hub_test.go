package sse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"labelme/adapters/redis"
	"labelme/adapters/sse"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("did not receive message in time")
		return Message{}
	}
}

func TestHub_Local(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := sse.NewHub[Message]()
	hub.Start()
	hub.Start()
	defer hub.Close()

	// 測試訂閱
	ch, err := hub.Subscribe("gallery")
	require.NoError(t, err)
	other, err := hub.Subscribe("other")
	require.NoError(t, err)

	// 測試發布訊息
	msg := Message{Data: "test message"}
	require.NoError(t, hub.Publish("gallery", msg))
	assert.Equal(t, msg, receive(t, ch))

	// 沒有訂閱者的頻道直接丟棄
	require.NoError(t, hub.Publish("nobody", msg))
	select {
	case <-other:
		t.Fatal("other channel should not receive")
	default:
	}

	// 測試取消訂閱
	hub.Unsubscribe("gallery", ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
	hub.Unsubscribe("missing", ch)
}

func TestHub_Closed(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := sse.NewHub[Message]()
	_, err := hub.Subscribe("gallery")
	assert.ErrorIs(t, err, sse.ErrHubClosed)

	hub.Start()
	ch, err := hub.Subscribe("gallery")
	require.NoError(t, err)

	hub.Close()
	hub.Close()

	_, ok := <-ch
	assert.False(t, ok, "subscribers should be closed with the hub")
	assert.ErrorIs(t, hub.Publish("gallery", Message{}), sse.ErrHubClosed)
}

func TestHub_Relay(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	producer := redis.NewMockIProducer[sse.PublishRequest[Message]](ctrl)
	consumer := redis.NewMockIConsumer[sse.PublishRequest[Message]](ctrl)

	// 模擬 Redis Stream 的往返
	stream := make(chan sse.PublishRequest[Message], 1)
	producer.EXPECT().Start()
	consumer.EXPECT().Start()
	consumer.EXPECT().Subscribe().Return((<-chan sse.PublishRequest[Message])(stream))
	producer.EXPECT().Publish(sse.PublishRequest[Message]{Channel: "gallery", Message: Message{Data: "relayed"}}).
		DoAndReturn(func(req sse.PublishRequest[Message]) error {
			stream <- req
			return nil
		})
	producer.EXPECT().Close()
	consumer.EXPECT().Close().Do(func() { close(stream) })

	hub := sse.NewHub(sse.WithHubRelay[Message](producer, consumer), sse.WithHubBufferSize[Message](4))
	hub.Start()

	ch, err := hub.Subscribe("gallery")
	require.NoError(t, err)
	require.NoError(t, hub.Publish("gallery", Message{Data: "relayed"}))
	assert.Equal(t, Message{Data: "relayed"}, receive(t, ch))

	hub.Close()
	_, ok := <-ch
	assert.False(t, ok)
}
