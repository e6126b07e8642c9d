package gormstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"labelme/images"
	"labelme/models"
)

// ImageStore 以 SQL 資料表保存圖片 metadata，語意與 DynamoDB 版本相同。
// 分頁以主鍵排序，cursor 是上一頁最後一筆的 id。
type ImageStore struct {
	db *gorm.DB
}

func NewImageStore(db *gorm.DB) (*ImageStore, error) {
	const op = "NewImageStore"
	if db == nil {
		return nil, fmt.Errorf("[%s] db cannot be nil", op)
	}
	return &ImageStore{db: db}, nil
}

// Migrate 建立或更新資料表
func (s *ImageStore) Migrate(ctx context.Context) error {
	const op = "Migrate"
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Image{}); err != nil {
		return fmt.Errorf("[%s] Fail to migrate, err=%w", op, err)
	}
	return nil
}

func upsert() clause.OnConflict {
	return clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
}

func (s *ImageStore) Put(ctx context.Context, image *models.Image) error {
	const op = "Put"
	if result := s.db.WithContext(ctx).Clauses(upsert()).Create(image); result.Error != nil {
		return fmt.Errorf("[%s] Fail to upsert image, id=%s, err=%w", op, image.ID, result.Error)
	}
	return nil
}

// BatchPut 在同一個交易內寫入最多 25 筆
func (s *ImageStore) BatchPut(ctx context.Context, batch []*models.Image) error {
	const op = "BatchPut"
	if len(batch) > models.MaxBatchWriteItems {
		return fmt.Errorf("[%s] size=%d, err=%w", op, len(batch), models.ErrBatchTooLarge)
	}
	if len(batch) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(upsert()).CreateInBatches(batch, models.MaxBatchWriteItems).Error
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to upsert images, err=%w", op, err)
	}
	return nil
}

func (s *ImageStore) Get(ctx context.Context, id string) (*models.Image, error) {
	const op = "Get"
	var image models.Image
	if result := s.db.WithContext(ctx).Where("id = ?", id).First(&image); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("[%s] id=%s, err=%w", op, id, models.ErrImageNotFound)
		}
		return nil, fmt.Errorf("[%s] Fail to get image, id=%s, err=%w", op, id, result.Error)
	}
	return &image, nil
}

func (s *ImageStore) UpdateLabel(ctx context.Context, id, label string, updatedAt time.Time, updatedBy string) (*models.Image, error) {
	const op = "UpdateLabel"
	var image models.Image
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Image{}).Where("id = ?", id).Updates(map[string]any{
			"label":      label,
			"updated_at": updatedAt,
			"updated_by": updatedBy,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrImageNotFound
		}
		return tx.Where("id = ?", id).First(&image).Error
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to update label, id=%s, err=%w", op, id, err)
	}
	return &image, nil
}

func (s *ImageStore) UpdateURL(ctx context.Context, id, url string, expiresAt time.Time) error {
	const op = "UpdateURL"
	result := s.db.WithContext(ctx).Model(&models.Image{}).Where("id = ?", id).Updates(map[string]any{
		"url":                   url,
		"signed_url_expires_at": expiresAt,
	})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to update url, id=%s, err=%w", op, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("[%s] id=%s, err=%w", op, id, models.ErrImageNotFound)
	}
	return nil
}

func (s *ImageStore) Delete(ctx context.Context, id string) error {
	const op = "Delete"
	if result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Image{}); result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete image, id=%s, err=%w", op, id, result.Error)
	}
	return nil
}

func (s *ImageStore) Scan(ctx context.Context, limit int, cursor string) (*images.Page, error) {
	const op = "Scan"
	query := s.db.WithContext(ctx).Order("id").Limit(limit + 1)
	if cursor != "" {
		after, err := base64.RawURLEncoding.DecodeString(cursor)
		if err != nil || len(after) == 0 {
			return nil, fmt.Errorf("[%s] %w", op, models.ErrInvalidCursor)
		}
		query = query.Where("id > ?", string(after))
	}

	var rows []*models.Image
	if result := query.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to scan images, err=%w", op, result.Error)
	}
	page := &images.Page{Images: rows}
	if len(rows) > limit {
		page.Images = rows[:limit]
		page.Cursor = base64.RawURLEncoding.EncodeToString([]byte(rows[limit-1].ID))
	}
	return page, nil
}
