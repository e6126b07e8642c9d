//go:generate mockgen -package=images -destination=mock.go -source=interfaces.go

package images

import (
	"context"
	"net/http"
	"time"

	"labelme/models"
)

// IObjectStore 是物件存儲需要提供的能力
type IObjectStore interface {
	// PresignPut 產生上傳用的 presigned URL，回傳上傳時必須帶上的 headers
	PresignPut(ctx context.Context, key, contentType string, metadata map[string]string, ttl time.Duration) (string, http.Header, error)
	// PresignGet 產生下載用的 presigned URL
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PutObject(ctx context.Context, key, contentType string, metadata map[string]string, content []byte) error
	DeleteObject(ctx context.Context, key string) error
	// HeadMetadata 讀回物件的 user metadata，物件不存在時回傳 models.ErrObjectNotFound
	HeadMetadata(ctx context.Context, key string) (map[string]string, error)
}

// Page 是 metadata 存儲一次 scan 的結果，Cursor 為空字串代表沒有下一頁
type Page struct {
	Images []*models.Image
	Cursor string
}

// IMetadataStore 是 metadata 存儲需要提供的能力
type IMetadataStore interface {
	// Put 無條件寫入，同 ID 的紀錄會被覆蓋
	Put(ctx context.Context, image *models.Image) error
	// BatchPut 一次最多寫入 models.MaxBatchWriteItems 筆
	BatchPut(ctx context.Context, images []*models.Image) error
	// Get 找不到時回傳 models.ErrImageNotFound
	Get(ctx context.Context, id string) (*models.Image, error)
	// UpdateLabel 只更新已存在的紀錄，找不到時回傳 models.ErrImageNotFound
	UpdateLabel(ctx context.Context, id, label string, updatedAt time.Time, updatedBy string) (*models.Image, error)
	UpdateURL(ctx context.Context, id, url string, expiresAt time.Time) error
	// Delete 刪除不存在的紀錄不算錯誤
	Delete(ctx context.Context, id string) error
	// Scan 從 cursor 開始讀取最多 limit 筆，cursor 無法解析時回傳 models.ErrInvalidCursor
	Scan(ctx context.Context, limit int, cursor string) (*Page, error)
}

// INotifier 接收圖庫變動事件
type INotifier interface {
	Notify(ctx context.Context, event models.GalleryEvent)
}
