package images

import (
	"context"
	"log/slog"
	"time"

	"labelme/models"
)

const (
	DefaultUploadURLTTL     = 5 * time.Minute
	DefaultBulkUploadURLTTL = 30 * time.Minute
	DefaultDownloadURLTTL   = time.Hour
	DefaultFanOutLimit      = 16
)

type options struct {
	logger           *slog.Logger
	now              func() time.Time
	notifier         INotifier
	uploadURLTTL     time.Duration
	bulkUploadURLTTL time.Duration
	downloadURLTTL   time.Duration
	fanOutLimit      int
}

type Option func(*options)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock 覆蓋時間來源，主要用於測試
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithNotifier 設置圖庫變動事件的接收者
func WithNotifier(notifier INotifier) Option {
	return func(o *options) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

func WithUploadURLTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.uploadURLTTL = ttl
		}
	}
}

func WithBulkUploadURLTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.bulkUploadURLTTL = ttl
		}
	}
}

func WithDownloadURLTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.downloadURLTTL = ttl
		}
	}
}

// WithFanOutLimit 設置單一請求內同時進行的外部呼叫數量
func WithFanOutLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.fanOutLimit = limit
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:           slog.Default(),
		now:              time.Now,
		notifier:         nopNotifier{},
		uploadURLTTL:     DefaultUploadURLTTL,
		bulkUploadURLTTL: DefaultBulkUploadURLTTL,
		downloadURLTTL:   DefaultDownloadURLTTL,
		fanOutLimit:      DefaultFanOutLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.GalleryEvent) {}
