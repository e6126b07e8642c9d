package sse

import (
	"errors"
	"log/slog"
	"sync"

	"labelme/adapters/redis"
)

var ErrHubClosed = errors.New("hub is closed")

type hubOptions[T any] struct {
	logger     *slog.Logger
	bufferSize int
	producer   redis.IProducer[PublishRequest[T]]
	consumer   redis.IConsumer[PublishRequest[T]]
}

type HubOption[T any] func(*hubOptions[T])

// WithHubLogger 設置日誌記錄器
func WithHubLogger[T any](logger *slog.Logger) HubOption[T] {
	return func(o *hubOptions[T]) {
		o.logger = logger
	}
}

// WithHubBufferSize 設置每個訂閱者的緩衝大小
func WithHubBufferSize[T any](size int) HubOption[T] {
	return func(o *hubOptions[T]) {
		o.bufferSize = size
	}
}

// WithHubRelay 透過 Redis Stream 轉送訊息，讓多個服務實例的訂閱者都能收到。
// 未設置時只廣播給本機的訂閱者。
func WithHubRelay[T any](producer redis.IProducer[PublishRequest[T]], consumer redis.IConsumer[PublishRequest[T]]) HubOption[T] {
	return func(o *hubOptions[T]) {
		o.producer = producer
		o.consumer = consumer
	}
}

// Hub 管理多個 SSE 頻道的訂閱與發布。
type Hub[T any] struct {
	logger *slog.Logger

	mu       sync.RWMutex // 保護 active 和 channels 的讀寫
	wg       sync.WaitGroup
	active   bool
	channels map[string]*Channel[T]

	options hubOptions[T]
}

func NewHub[T any](opts ...HubOption[T]) *Hub[T] {
	options := hubOptions[T]{
		logger:     slog.Default(),
		bufferSize: DefaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Hub[T]{
		logger:   options.logger.With(slog.String("caller", "Hub")),
		channels: make(map[string]*Channel[T]),
		options:  options,
	}
}

func (h *Hub[T]) relayed() bool {
	return h.options.producer != nil && h.options.consumer != nil
}

// Start 啟動 Hub，有設置轉送時開始從 Redis Stream 接收訊息。
func (h *Hub[T]) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active {
		return
	}
	h.active = true

	if !h.relayed() {
		return
	}
	h.options.producer.Start()
	h.options.consumer.Start()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for req := range h.options.consumer.Subscribe() {
			h.dispatch(req)
		}
	}()
}

// Close 停止 Hub 並關閉所有訂閱者的通道。
func (h *Hub[T]) Close() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.active = false
	h.mu.Unlock()

	if h.relayed() {
		h.options.producer.Close()
		h.options.consumer.Close()
		h.wg.Wait()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range h.channels {
		channel.UnsubscribeAll()
	}
	clear(h.channels)
}

// Subscribe 訂閱指定的頻道。
func (h *Hub[T]) Subscribe(channelName string) (<-chan T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active {
		return nil, ErrHubClosed
	}

	c, ok := h.channels[channelName]
	if !ok {
		c = NewChannel[T](h.options.bufferSize)
		h.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

// Publish 發布訊息到指定的頻道。
func (h *Hub[T]) Publish(channelName string, data T) error {
	h.mu.RLock()
	active := h.active
	h.mu.RUnlock()
	if !active {
		return ErrHubClosed
	}

	req := PublishRequest[T]{Channel: channelName, Message: data}
	if h.relayed() {
		return h.options.producer.Publish(req)
	}
	h.dispatch(req)
	return nil
}

// Unsubscribe 取消訂閱指定的頻道，最後一個訂閱者離開時移除頻道。
func (h *Hub[T]) Unsubscribe(channelName string, ch <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(h.channels, channelName)
	}
}

func (h *Hub[T]) dispatch(req PublishRequest[T]) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channel, ok := h.channels[req.Channel]
	if !ok {
		return
	}
	if dropped := channel.Broadcast(req.Message); dropped > 0 {
		h.logger.Warn("slow subscribers skipped a message",
			slog.String("channel", req.Channel),
			slog.Int("dropped", dropped),
		)
	}
}
