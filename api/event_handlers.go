package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalS3 "labelme/adapters/s3"
	"labelme/images"
)

const (
	// maxObjectEventBodyBytes 是單次物件事件通知的大小上限
	maxObjectEventBodyBytes = 1 << 20
	sseKeepAliveInterval    = 30 * time.Second
)

// GalleryEvents 以 SSE 推送圖庫異動，連線期間持續送出 keep-alive
// (GET /label-images/events)
func (impl *ServerImpl) GalleryEvents(c *gin.Context) {
	events, err := impl.hub.Subscribe(galleryChannel)
	if err != nil {
		respondMessage(c, http.StatusServiceUnavailable, "Service Unavailable")
		return
	}
	defer impl.hub.Unsubscribe(galleryChannel, events)

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				// hub 已關閉
				return
			}
			c.SSEvent(string(event.Type), event)
			c.Writer.Flush()
		case <-ticker.C:
			// SSE 註解行，只用來維持連線
			if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// ObjectEvents 接收物件存儲的建立通知。
// 有 Redis 時寫入 stream 交給 worker，否則直接同步處理。
// 任何無法保證之後會被處理的情況都回 5xx，讓通知端重送。
// (POST /internal/object-events)
func (impl *ServerImpl) ObjectEvents(c *gin.Context) {
	body, err := internalS3.ReadAllLimited(c.Request.Body, maxObjectEventBodyBytes)
	if err != nil {
		var reachLimit *internalS3.ReachLimitError
		if errors.As(err, &reachLimit) {
			respondMessage(c, http.StatusRequestEntityTooLarge, reachLimit.Error())
			return
		}
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	batch, err := images.DecodeS3Notification(body)
	if err != nil {
		respondError(c, err, "Invalid object event notification")
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusOK, images.IngestReport{Ingested: []string{}})
		return
	}

	if impl.producer != nil {
		// 寫入 stream 成功後才回 202，否則通知端會認為已經送達
		id, err := impl.producer.PublishSync(c.Request.Context(), images.ObjectEventBatch{Events: batch})
		if err != nil {
			impl.logger.Error("Fail to queue object events", slog.Int("events", len(batch)), slog.Any("error", err))
			respondMessage(c, http.StatusInternalServerError, "Fail to queue object events")
			return
		}
		impl.logger.Debug("Object events queued", slog.String("messageId", id), slog.Int("events", len(batch)))
		respondMessage(c, http.StatusAccepted, "Queued")
		return
	}

	report, err := impl.ingestor.Ingest(c.Request.Context(), batch)
	if err != nil {
		respondError(c, err, "Fail to ingest object events")
		return
	}
	c.JSON(http.StatusOK, report)
}

// Health
// (GET /healthz)
func (impl *ServerImpl) Health(c *gin.Context) {
	c.JSON(http.StatusOK, messageResponse{Message: "OK"})
}
