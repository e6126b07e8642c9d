package redis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// messageField 是 stream entry 中存放序列化資料的欄位
const messageField = "data"

// retryDelay 是與 redis 通訊失敗後重試前的等待時間
const retryDelay = 200 * time.Millisecond

var (
	ErrPointerType  = errors.New("pointer type is not allowed")
	ErrMissingField = errors.New("data field not found or invalid type")
)

// DeadLetterStream 回傳處理失敗的消息會被移入的 stream
func DeadLetterStream(stream string) string {
	return stream + ":dead-letter"
}

// deadLetterValues 依欄位名稱排序攤平原消息，再附加失敗資訊
func deadLetterValues(raw map[string]any, extra ...any) []any {
	values := make([]any, 0, len(raw)*2+len(extra))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		values = append(values, key, raw[key])
	}
	return append(values, extra...)
}

// DefaultParseToMessage 以 msgpack + base64 序列化成 stream entry
func DefaultParseToMessage[T any](data T) (map[string]any, error) {
	if t := reflect.TypeOf(data); t != nil && t.Kind() == reflect.Ptr {
		return nil, ErrPointerType
	}

	bytes, err := msgpack.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}
	return map[string]any{
		messageField: base64.StdEncoding.EncodeToString(bytes),
	}, nil
}

// DefaultParseFromMessage 是 DefaultParseToMessage 的反向操作
func DefaultParseFromMessage[T any](message map[string]any) (T, error) {
	var result T
	if t := reflect.TypeOf(result); t != nil && t.Kind() == reflect.Ptr {
		return result, ErrPointerType
	}

	encoded, ok := message[messageField].(string)
	if !ok {
		return result, ErrMissingField
	}
	bytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return result, fmt.Errorf("base64 decode error: %w", err)
	}
	if err := msgpack.Unmarshal(bytes, &result); err != nil {
		return result, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return result, nil
}

// sleepContext 等待 d 或直到 ctx 結束
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
