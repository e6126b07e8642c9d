package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"labelme/models"
)

type DeleteReport struct {
	Deleted  []string      `json:"deleted"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

// Editor 負責修改標籤以及刪除圖片
type Editor struct {
	objects  IObjectStore
	metadata IMetadataStore
	opts     options
}

func NewEditor(objects IObjectStore, metadata IMetadataStore, opts ...Option) *Editor {
	o := newOptions(opts)
	o.logger = o.logger.With(slog.String("caller", "Editor"))
	return &Editor{objects: objects, metadata: metadata, opts: o}
}

// SetLabel 只更新已存在的紀錄，並回傳更新後的完整紀錄
func (e *Editor) SetLabel(ctx context.Context, id string, label *string, actor models.Actor) (*models.Image, error) {
	const op = "SetLabel"
	if id == "" {
		return nil, models.NewValidationError("id is required")
	}
	if label == nil {
		return nil, models.NewValidationError("label is required")
	}

	now := e.opts.now()
	image, err := e.metadata.UpdateLabel(ctx, id, *label, now, actor.Username)
	if err != nil {
		if errors.Is(err, models.ErrImageNotFound) {
			return nil, models.NewNotFoundError("Image not found")
		}
		e.opts.logger.Error("Fail to update label", slog.String("id", id), slog.Any("err", err))
		return nil, models.NewUpstreamError("Error updating label", fmt.Errorf("[%s] Fail to update, err=%w", op, err))
	}
	e.opts.notifier.Notify(ctx, models.GalleryEvent{Type: models.GalleryEventLabeled, ID: id, At: now})
	return image, nil
}

// BulkDelete 同時刪除多張圖片，不存在的 ID 視為已刪除。
// 只有全部失敗時才回傳錯誤，部分失敗會列在報告中。
func (e *Editor) BulkDelete(ctx context.Context, ids []string, actor models.Actor) (*DeleteReport, error) {
	const op = "BulkDelete"
	if len(ids) == 0 {
		return nil, models.NewValidationError("Invalid or empty ids array")
	}

	results := fanOut(ctx, e.opts.fanOutLimit, lo.Uniq(ids), e.deleteOne)
	report := &DeleteReport{
		Deleted: lo.FilterMap(results, func(r ItemResult[string, struct{}], _ int) (string, bool) {
			return r.Item, r.Err == nil
		}),
		Failures: failuresOf(results, identity, "Error deleting image"),
	}
	for _, r := range results {
		if r.Err != nil {
			e.opts.logger.Error("Fail to delete image", slog.String("id", r.Item), slog.Any("err", r.Err))
		}
	}
	if len(report.Deleted) == 0 {
		return report, models.NewUpstreamError("Error deleting images", fmt.Errorf("[%s] Fail to delete all %d images", op, len(results)))
	}

	e.opts.logger.Info("Deleted images", slog.String("by", actor.Username), slog.Int("count", len(report.Deleted)))
	now := e.opts.now()
	for _, id := range report.Deleted {
		e.opts.notifier.Notify(ctx, models.GalleryEvent{Type: models.GalleryEventDeleted, ID: id, At: now})
	}
	return report, nil
}

func (e *Editor) deleteOne(ctx context.Context, id string) (struct{}, error) {
	const op = "deleteOne"
	image, err := e.metadata.Get(ctx, id)
	if errors.Is(err, models.ErrImageNotFound) {
		return struct{}{}, nil
	}
	if err != nil {
		return struct{}{}, fmt.Errorf("[%s] Fail to get record, err=%w", op, err)
	}
	if image.S3Key != "" {
		if err := e.objects.DeleteObject(ctx, image.S3Key); err != nil {
			return struct{}{}, fmt.Errorf("[%s] Fail to delete object, err=%w", op, err)
		}
	}
	if err := e.metadata.Delete(ctx, id); err != nil {
		return struct{}{}, fmt.Errorf("[%s] Fail to delete record, err=%w", op, err)
	}
	return struct{}{}, nil
}
