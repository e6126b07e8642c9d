package images

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/samber/lo"

	"labelme/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParseLimit 解析分頁大小，缺少、非數字或小於 1 時使用預設值
func ParseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return DefaultPageSize
	}
	return min(limit, MaxPageSize)
}

type GalleryPage struct {
	Images   []*models.Image `json:"images"`
	LastKey  *string         `json:"lastKey"`
	Failures []ItemFailure   `json:"failures,omitempty"`
}

// Gallery 讀取分頁的圖片清單，並替過期的 presigned URL 換發新的
type Gallery struct {
	objects  IObjectStore
	metadata IMetadataStore
	opts     options
}

func NewGallery(objects IObjectStore, metadata IMetadataStore, opts ...Option) *Gallery {
	o := newOptions(opts)
	o.logger = o.logger.With(slog.String("caller", "Gallery"))
	return &Gallery{objects: objects, metadata: metadata, opts: o}
}

// List 讀取一頁紀錄。換發失敗的項目仍會回傳，但不帶 URL，
// 失敗原因列在 Failures。排序只作用在這一頁之內。
func (g *Gallery) List(ctx context.Context, limit int, cursor string) (*GalleryPage, error) {
	const op = "List"
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	page, err := g.metadata.Scan(ctx, limit, cursor)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCursor) {
			return nil, models.NewValidationError("invalid lastKey")
		}
		g.opts.logger.Error("Fail to scan images", slog.Any("err", err))
		return nil, models.NewUpstreamError("Error retrieving images", fmt.Errorf("[%s] Fail to scan, err=%w", op, err))
	}

	now := g.opts.now()
	stale := lo.Filter(page.Images, func(img *models.Image, _ int) bool { return img.URLExpired(now) })
	results := fanOut(ctx, g.opts.fanOutLimit, stale, func(ctx context.Context, img *models.Image) (struct{}, error) {
		return struct{}{}, g.refresh(ctx, img)
	})
	failures := failuresOf(results, func(img *models.Image) string { return img.ID }, "Error refreshing image URL")
	for _, r := range results {
		if r.Err != nil {
			g.opts.logger.Warn("Fail to refresh image URL", slog.String("id", r.Item.ID), slog.Any("err", r.Err))
		}
	}

	images := page.Images
	if images == nil {
		images = []*models.Image{}
	}
	slices.SortStableFunc(images, compareUpdatedDesc)

	result := &GalleryPage{Images: images, Failures: failures}
	if page.Cursor != "" {
		result.LastKey = lo.ToPtr(page.Cursor)
	}
	return result, nil
}

// refresh 換發 URL 並先寫回存儲，成功後才更新回傳的紀錄
func (g *Gallery) refresh(ctx context.Context, img *models.Image) error {
	const op = "refresh"
	if img.S3Key == "" {
		img.URL = ""
		return models.NewUpstreamError("image has no object key", fmt.Errorf("[%s] Fail to refresh %s", op, img.ID))
	}
	expiresAt := g.opts.now().Add(g.opts.downloadURLTTL)
	signed, err := g.objects.PresignGet(ctx, img.S3Key, g.opts.downloadURLTTL)
	if err != nil {
		img.URL = ""
		return fmt.Errorf("[%s] Fail to presign, err=%w", op, err)
	}
	if err := g.metadata.UpdateURL(ctx, img.ID, signed, expiresAt); err != nil {
		img.URL = ""
		return fmt.Errorf("[%s] Fail to persist url, err=%w", op, err)
	}
	img.URL = signed
	img.SignedURLExpiresAt = &expiresAt
	return nil
}

// compareUpdatedDesc 依 UpdatedAt 由新到舊，沒有 UpdatedAt 的排在最後
func compareUpdatedDesc(a, b *models.Image) int {
	switch {
	case a.UpdatedAt == nil && b.UpdatedAt == nil:
		return 0
	case a.UpdatedAt == nil:
		return 1
	case b.UpdatedAt == nil:
		return -1
	}
	return cmp.Compare(b.UpdatedAt.UnixNano(), a.UpdatedAt.UnixNano())
}
