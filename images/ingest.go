package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/samber/lo"

	"labelme/models"
)

const (
	objectCreatedPrefix = "ObjectCreated:"
	unknownUploader     = "Unknown"
)

// ObjectEvent 是物件存儲送出的單一通知，Key 保持通知內的編碼形式
type ObjectEvent struct {
	EventName string `json:"eventName" msgpack:"eventName"`
	Bucket    string `json:"bucket" msgpack:"bucket"`
	Key       string `json:"key" msgpack:"key"`
}

// ObjectEventBatch 是一次通知投遞，會被整批放進 redis stream
type ObjectEventBatch struct {
	Events []ObjectEvent `msgpack:"events"`
}

// DecodeS3Notification 解析 S3 event notification JSON
func DecodeS3Notification(body []byte) ([]ObjectEvent, error) {
	var notification events.S3Event
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, models.NewValidationError("invalid object event notification")
	}
	return lo.Map(notification.Records, func(record events.S3EventRecord, _ int) ObjectEvent {
		return ObjectEvent{
			EventName: record.EventName,
			Bucket:    record.S3.Bucket.Name,
			Key:       record.S3.Object.Key,
		}
	}), nil
}

type IngestReport struct {
	Ingested []string      `json:"ingested"`
	Skipped  []ItemFailure `json:"skipped,omitempty"`
}

// Ingestor 把物件建立事件轉成 metadata 紀錄
type Ingestor struct {
	objects  IObjectStore
	metadata IMetadataStore
	opts     options
}

func NewIngestor(objects IObjectStore, metadata IMetadataStore, opts ...Option) *Ingestor {
	o := newOptions(opts)
	o.logger = o.logger.With(slog.String("caller", "Ingestor"))
	return &Ingestor{objects: objects, metadata: metadata, opts: o}
}

// Ingest 處理一次通知投遞。
// key 格式錯誤或物件已消失的事件會被略過並回報，其他讀取錯誤視為暫時性失敗；
// 寫入以 25 筆為一組依序進行，某一組失敗時回傳錯誤，先前的組別維持已寫入，交由投遞端重試。
func (i *Ingestor) Ingest(ctx context.Context, batch []ObjectEvent) (*IngestReport, error) {
	const op = "Ingest"
	report := &IngestReport{Ingested: []string{}}

	created := lo.Filter(batch, func(evt ObjectEvent, _ int) bool {
		return strings.HasPrefix(evt.EventName, objectCreatedPrefix)
	})
	results := fanOut(ctx, i.opts.fanOutLimit, created, i.recordFor)

	skipped, failed := lo.FilterReject(
		lo.Filter(results, func(r ItemResult[ObjectEvent, *models.Image], _ int) bool { return r.Err != nil }),
		func(r ItemResult[ObjectEvent, *models.Image], _ int) bool { return skippable(r.Err) },
	)
	for _, r := range skipped {
		i.opts.logger.Warn("Skip object event", slog.String("key", r.Item.Key), slog.Any("err", r.Err))
	}
	report.Skipped = failuresOf(skipped, func(evt ObjectEvent) string { return evt.Key }, "Object event skipped")

	records := lo.FilterMap(results, func(r ItemResult[ObjectEvent, *models.Image], _ int) (*models.Image, bool) {
		return r.Value, r.Err == nil
	})
	for _, chunk := range lo.Chunk(records, models.MaxBatchWriteItems) {
		if err := i.metadata.BatchPut(ctx, chunk); err != nil {
			i.opts.logger.Error("Fail to write ingested records", slog.Int("committed", len(report.Ingested)), slog.Any("err", err))
			return report, fmt.Errorf("[%s] Fail to batch put, err=%w", op, err)
		}
		for _, image := range chunk {
			report.Ingested = append(report.Ingested, image.ID)
			i.opts.notifier.Notify(ctx, models.GalleryEvent{Type: models.GalleryEventCreated, ID: image.ID, At: image.CreatedAt})
		}
	}
	if len(failed) > 0 {
		for _, r := range failed {
			i.opts.logger.Error("Fail to build record", slog.String("key", r.Item.Key), slog.Any("err", r.Err))
		}
		return report, fmt.Errorf("[%s] Fail to build %d of %d records, err=%w", op, len(failed), len(created), failed[0].Err)
	}
	i.opts.logger.Info("Ingested object events",
		slog.Int("received", len(batch)),
		slog.Int("ingested", len(report.Ingested)),
		slog.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// skippable 判斷事件是否重送也不會成功
func skippable(err error) bool {
	return errors.Is(err, ErrMalformedKey) || errors.Is(err, models.ErrObjectNotFound)
}

func (i *Ingestor) recordFor(ctx context.Context, evt ObjectEvent) (*models.Image, error) {
	const op = "recordFor"
	key, err := url.QueryUnescape(evt.Key)
	if err != nil {
		return nil, &models.Error{Kind: models.KindValidation, Message: "Malformed object key", Err: errors.Join(ErrMalformedKey, err)}
	}
	parts, err := ParseObjectKey(key)
	if err != nil {
		return nil, &models.Error{Kind: models.KindValidation, Message: "Malformed object key", Err: err}
	}
	metadata, err := i.objects.HeadMetadata(ctx, key)
	if errors.Is(err, models.ErrObjectNotFound) {
		return nil, &models.Error{Kind: models.KindNotFound, Message: "Object no longer exists", Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to read object metadata, err=%w", op, err)
	}

	createdBy := unknownUploader
	if v, ok := metadata[metadataUsername]; ok && v != "" {
		createdBy = decodeMetadataValue(v)
	}
	return &models.Image{
		ID:        parts.ImageID,
		FileName:  parts.FileName,
		UserID:    parts.UserID,
		S3Key:     key,
		Label:     decodeMetadataValue(metadata[metadataLabel]),
		CreatedAt: i.opts.now(),
		CreatedBy: createdBy,
	}, nil
}
