package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"labelme/models"
)

// 上傳時寫入物件 metadata 的 key，S3 會把 key 轉成小寫
const (
	metadataLabel    = "label"
	metadataUsername = "username"
)

// UploadIntent 是使用者宣告要上傳的檔案，不會被保存
type UploadIntent struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Label       string `json:"label"`
}

func (i UploadIntent) validate() error {
	if err := validateFileName(i.FileName); err != nil {
		return err
	}
	if strings.TrimSpace(i.ContentType) == "" {
		return models.NewValidationError("contentType is required")
	}
	return nil
}

// UploadSlot 是發給客戶端的一次性上傳位置
type UploadSlot struct {
	ID        string            `json:"id"`
	UploadURL string            `json:"uploadUrl"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// ConfirmItem 是客戶端完成 presigned 上傳後回報的項目
type ConfirmItem struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	S3Key    string `json:"s3Key"`
	Label    string `json:"label"`
}

type ConfirmReport struct {
	Confirmed []string      `json:"confirmed"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

// Coordinator 負責發放上傳位置以及直接建立圖片紀錄
type Coordinator struct {
	objects  IObjectStore
	metadata IMetadataStore
	opts     options
}

func NewCoordinator(objects IObjectStore, metadata IMetadataStore, opts ...Option) *Coordinator {
	o := newOptions(opts)
	o.logger = o.logger.With(slog.String("caller", "Coordinator"))
	return &Coordinator{objects: objects, metadata: metadata, opts: o}
}

// RequestUploadSlot 產生單一檔案的 presigned PUT URL，不寫入 metadata。
// 紀錄會在物件上傳後由 ingestion 建立。
func (c *Coordinator) RequestUploadSlot(ctx context.Context, intent UploadIntent, actor models.Actor) (*UploadSlot, error) {
	const op = "RequestUploadSlot"
	if err := intent.validate(); err != nil {
		return nil, err
	}
	slot, err := c.presignSlot(ctx, intent, actor, c.opts.uploadURLTTL)
	if err != nil {
		c.opts.logger.Error("Fail to presign upload URL", slog.String("fileName", intent.FileName), slog.Any("err", err))
		return nil, models.NewUpstreamError("Error generating upload URL", fmt.Errorf("[%s] Fail to presign, err=%w", op, err))
	}
	return slot, nil
}

// RequestBulkUploadSlots 同時為多個檔案產生上傳位置，回傳順序與輸入相同。
// 任一個失敗就整體失敗，已經產生的 URL 會自然過期。
func (c *Coordinator) RequestBulkUploadSlots(ctx context.Context, intents []UploadIntent, actor models.Actor) ([]UploadSlot, error) {
	const op = "RequestBulkUploadSlots"
	if len(intents) == 0 {
		return nil, models.NewValidationError("images must be a non-empty list")
	}
	for idx, intent := range intents {
		if err := intent.validate(); err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("images[%d]: %s", idx, models.PublicMessage(err, "")))
		}
	}

	results := fanOut(ctx, c.opts.fanOutLimit, intents, func(ctx context.Context, intent UploadIntent) (*UploadSlot, error) {
		return c.presignSlot(ctx, intent, actor, c.opts.bulkUploadURLTTL)
	})

	slots := make([]UploadSlot, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			c.opts.logger.Error("Fail to presign bulk upload URL", slog.Any("err", r.Err))
			return nil, models.NewUpstreamError("Error generating upload URLs", fmt.Errorf("[%s] Fail to presign, err=%w", op, r.Err))
		}
		slots = append(slots, *r.Value)
	}
	return slots, nil
}

func (c *Coordinator) presignSlot(ctx context.Context, intent UploadIntent, actor models.Actor, ttl time.Duration) (*UploadSlot, error) {
	id := uuid.NewString()
	key := ObjectKey{UserID: actor.UserID, ImageID: id, FileName: intent.FileName}
	uploadURL, headers, err := c.objects.PresignPut(ctx, key.String(), intent.ContentType, objectMetadata(intent.Label, actor.Username), ttl)
	if err != nil {
		return nil, err
	}
	return &UploadSlot{ID: id, UploadURL: uploadURL, Headers: flattenHeaders(headers)}, nil
}

// StoreExternalReference 建立指向外部 URL 的紀錄，不會存取物件存儲
func (c *Coordinator) StoreExternalReference(ctx context.Context, imageURL, label string, actor models.Actor) (*models.Image, error) {
	const op = "StoreExternalReference"
	if strings.TrimSpace(imageURL) == "" {
		return nil, models.NewValidationError("imageUrl is required")
	}
	id := uuid.NewString()
	image := &models.Image{
		ID:         id,
		FileName:   externalFileName(imageURL, id),
		UserID:     actor.UserID,
		URL:        imageURL,
		Label:      label,
		IsExternal: true,
		CreatedAt:  c.opts.now(),
		CreatedBy:  actor.Username,
	}
	if err := c.metadata.Put(ctx, image); err != nil {
		c.opts.logger.Error("Fail to store external image", slog.String("imageUrl", imageURL), slog.Any("err", err))
		return nil, models.NewUpstreamError("Error storing external image", fmt.Errorf("[%s] Fail to put record, err=%w", op, err))
	}
	c.opts.notifier.Notify(ctx, models.GalleryEvent{Type: models.GalleryEventCreated, ID: id, At: image.CreatedAt})
	return image, nil
}

// UploadDirect 先寫入物件再寫入 metadata。metadata 寫入失敗時物件不會被回收。
func (c *Coordinator) UploadDirect(ctx context.Context, intent UploadIntent, content []byte, actor models.Actor) (*models.Image, error) {
	const op = "UploadDirect"
	if err := intent.validate(); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, models.NewValidationError("image content is required")
	}

	id := uuid.NewString()
	key := ObjectKey{UserID: actor.UserID, ImageID: id, FileName: intent.FileName}.String()
	err := c.objects.PutObject(ctx, key, intent.ContentType, objectMetadata(intent.Label, actor.Username), content)
	if err != nil {
		c.opts.logger.Error("Fail to upload object", slog.String("key", key), slog.Any("err", err))
		return nil, models.NewUpstreamError("Error uploading image", fmt.Errorf("[%s] Fail to put object, err=%w", op, err))
	}

	image := &models.Image{
		ID:        id,
		FileName:  intent.FileName,
		UserID:    actor.UserID,
		S3Key:     key,
		Label:     intent.Label,
		CreatedAt: c.opts.now(),
		CreatedBy: actor.Username,
	}
	if err := c.metadata.Put(ctx, image); err != nil {
		c.opts.logger.Error("Fail to store image record, object left behind", slog.String("key", key), slog.Any("err", err))
		return nil, models.NewUpstreamError("Error uploading image", fmt.Errorf("[%s] Fail to put record, err=%w", op, err))
	}
	c.opts.notifier.Notify(ctx, models.GalleryEvent{Type: models.GalleryEventCreated, ID: id, At: image.CreatedAt})
	return image, nil
}

// ConfirmUploads 在客戶端完成 presigned 上傳後立即建立紀錄，
// 與 ingestion 寫入相同的 ID，後寫入者為準。
func (c *Coordinator) ConfirmUploads(ctx context.Context, items []ConfirmItem, actor models.Actor) (*ConfirmReport, error) {
	const op = "ConfirmUploads"
	if len(items) == 0 {
		return nil, models.NewValidationError("data must be a non-empty list")
	}

	byID := make(map[string]ConfirmItem, len(items))
	for idx, item := range items {
		if item.ID == "" {
			return nil, models.NewValidationError(fmt.Sprintf("data[%d]: id is required", idx))
		}
		if err := validateFileName(item.FileName); err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("data[%d]: %s", idx, models.PublicMessage(err, "")))
		}
		byID[item.ID] = item
	}
	ids := lo.Uniq(lo.Map(items, func(item ConfirmItem, _ int) string { return item.ID }))

	now := c.opts.now()
	results := fanOut(ctx, c.opts.fanOutLimit, ids, func(ctx context.Context, id string) (*models.Image, error) {
		item := byID[id]
		key := ObjectKey{UserID: actor.UserID, ImageID: item.ID, FileName: item.FileName}.String()
		if item.S3Key != "" && item.S3Key != key {
			return nil, models.NewValidationError("s3Key does not match the uploaded file")
		}
		if _, err := c.objects.HeadMetadata(ctx, key); err != nil {
			if errors.Is(err, models.ErrObjectNotFound) {
				return nil, models.NewNotFoundError("uploaded object not found")
			}
			return nil, err
		}
		return &models.Image{
			ID:        item.ID,
			FileName:  item.FileName,
			UserID:    actor.UserID,
			S3Key:     key,
			Label:     item.Label,
			CreatedAt: now,
			CreatedBy: actor.Username,
		}, nil
	})

	report := &ConfirmReport{Confirmed: []string{}, Failures: failuresOf(results, identity, "Error confirming upload")}
	records := lo.FilterMap(results, func(r ItemResult[string, *models.Image], _ int) (*models.Image, bool) {
		return r.Value, r.Err == nil
	})
	for _, chunk := range lo.Chunk(records, models.MaxBatchWriteItems) {
		if err := c.metadata.BatchPut(ctx, chunk); err != nil {
			c.opts.logger.Error("Fail to write confirmed records", slog.Int("count", len(chunk)), slog.Any("err", err))
			return nil, models.NewUpstreamError("Error confirming uploads", fmt.Errorf("[%s] Fail to batch put, err=%w", op, err))
		}
		for _, image := range chunk {
			report.Confirmed = append(report.Confirmed, image.ID)
			c.opts.notifier.Notify(ctx, models.GalleryEvent{Type: models.GalleryEventCreated, ID: image.ID, At: now})
		}
	}
	return report, nil
}

// objectMetadata 把 label 與使用者名稱編碼後放進物件 metadata，
// S3 user metadata 只接受 US-ASCII。
func objectMetadata(label, username string) map[string]string {
	return map[string]string{
		metadataLabel:    url.PathEscape(label),
		metadataUsername: url.PathEscape(username),
	}
}

func decodeMetadataValue(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	flat := make(map[string]string, len(headers))
	for name := range headers {
		// Host 由 HTTP client 自行帶上
		if strings.EqualFold(name, "Host") {
			continue
		}
		flat[name] = headers.Get(name)
	}
	return flat
}
