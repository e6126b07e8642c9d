//go:generate mockgen -package=redis -destination=mock.go -source=interfaces.go

package redis

import (
	"context"
)

// IProducer 把消息寫入 stream
type IProducer[T any] interface {
	Start()
	// Publish 只把消息放進本機佇列，寫入失敗只記錄在日誌
	Publish(data T) error
	// PublishSync 等待 redis 接受消息，失敗時回傳錯誤
	PublishSync(ctx context.Context, data T) (string, error)
	Close()
}

// IGroupConsumer 以 consumer group 讀取 stream，同一則消息只交給一個實例。
// 收到的消息必須呼叫 Done 或 Fail，否則會留在 pending 等待重送。
type IGroupConsumer[T any] interface {
	Start() error
	Subscribe() <-chan *Message[T]
	Close() error
}

// IConsumer 以廣播方式讀取 stream，每個實例都收到全部消息
type IConsumer[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}

// IAutoRenewMutex 是持有期間自動續期的分散式鎖
type IAutoRenewMutex interface {
	// Lock 回傳的 context 在失去鎖時取消
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}
