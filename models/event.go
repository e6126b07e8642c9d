package models

import "time"

// MaxBatchWriteItems 是 metadata 存儲單次批次寫入的上限
const MaxBatchWriteItems = 25

type GalleryEventType string

const (
	GalleryEventCreated GalleryEventType = "created"
	GalleryEventLabeled GalleryEventType = "labeled"
	GalleryEventDeleted GalleryEventType = "deleted"
)

// GalleryEvent 通知前端圖庫內容有變動
type GalleryEvent struct {
	Type GalleryEventType `json:"type" msgpack:"type"`
	ID   string           `json:"id" msgpack:"id"`
	At   time.Time        `json:"at" msgpack:"at"`
}
