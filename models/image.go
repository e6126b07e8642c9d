package models

import (
	"time"
)

// Image 是一張圖片的 metadata 紀錄，以 ID 為主鍵。
// 物件存儲中的圖片帶有 S3Key，外部圖片只帶有永久的 URL。
type Image struct {
	ID                 string     `json:"id" dynamodbav:"id" gorm:"type:varchar(64);primaryKey"`
	FileName           string     `json:"fileName" dynamodbav:"fileName" gorm:"type:text;not null"`
	UserID             string     `json:"userId" dynamodbav:"userId" gorm:"type:varchar(128);index"`
	S3Key              string     `json:"s3Key,omitempty" dynamodbav:"s3Key,omitempty" gorm:"type:text"`
	URL                string     `json:"url,omitempty" dynamodbav:"url,omitempty" gorm:"type:text"`
	SignedURLExpiresAt *time.Time `json:"signedUrlExpiresAt,omitempty" dynamodbav:"signedUrlExpiresAt,omitempty"`
	Label              string     `json:"label" dynamodbav:"label" gorm:"type:text;not null"`
	IsExternal         bool       `json:"isExternal" dynamodbav:"isExternal" gorm:"not null"`
	CreatedAt          time.Time  `json:"createdAt" dynamodbav:"createdAt" gorm:"autoCreateTime:false"`
	CreatedBy          string     `json:"createdBy" dynamodbav:"createdBy" gorm:"type:varchar(255)"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty" gorm:"autoUpdateTime:false"`
	UpdatedBy          string     `json:"updatedBy,omitempty" dynamodbav:"updatedBy,omitempty" gorm:"type:varchar(255)"`
}

// URLExpired 判斷快取的 presigned URL 是否需要重新產生。
// 外部圖片的 URL 是永久的，永遠不會過期。
func (img *Image) URLExpired(now time.Time) bool {
	if img.IsExternal {
		return false
	}
	if img.URL == "" || img.SignedURLExpiresAt == nil {
		return true
	}
	return !img.SignedURLExpiresAt.After(now)
}

// Actor 是通過驗證的呼叫者身分
type Actor struct {
	UserID   string
	Username string
}
