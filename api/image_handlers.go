package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	internalS3 "labelme/adapters/s3"
	"labelme/images"
)

// defaultDirectUploadMaxBytes 是直接上傳未設定上限時使用的大小
const defaultDirectUploadMaxBytes = 5 << 20

type bulkUploadRequest struct {
	Images []images.UploadIntent `json:"images"`
}

type bulkUploadResponse struct {
	UploadURLs []string            `json:"uploadUrls"`
	IDs        []string            `json:"ids"`
	Uploads    []images.UploadSlot `json:"uploads"`
}

type externalImageRequest struct {
	ImageURL string `json:"imageUrl"`
	Label    string `json:"label"`
}

type directUploadRequest struct {
	images.UploadIntent
	Base64Image string `json:"base64Image"`
}

type createdImageResponse struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
}

type confirmUploadRequest struct {
	Data []images.ConfirmItem `json:"data"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type bulkDeleteResponse struct {
	Message string `json:"message"`
	*images.DeleteReport
}

type setLabelRequest struct {
	ID    string  `json:"id"`
	Label *string `json:"label"`
}

// ListImages
// (GET /label-images)
func (impl *ServerImpl) ListImages(c *gin.Context) {
	page, err := impl.gallery.List(c.Request.Context(), images.ParseLimit(c.Query("limit")), c.Query("lastKey"))
	if err != nil {
		respondError(c, err, "Fail to get images")
		return
	}
	c.JSON(http.StatusOK, page)
}

// RequestUploadSlot
// (POST /label-images/upload)
func (impl *ServerImpl) RequestUploadSlot(c *gin.Context) {
	var req images.UploadIntent
	if !bindBody(c, &req) {
		return
	}
	slot, err := impl.coordinator.RequestUploadSlot(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, slot)
}

// RequestBulkUploadSlots
// (POST /label-images/bulk-upload)
func (impl *ServerImpl) RequestBulkUploadSlots(c *gin.Context) {
	var req bulkUploadRequest
	if !bindBody(c, &req) {
		return
	}
	if len(req.Images) == 0 {
		respondMessage(c, http.StatusBadRequest, "Invalid request: No images provided")
		return
	}
	slots, err := impl.coordinator.RequestBulkUploadSlots(c.Request.Context(), req.Images, actorFrom(c))
	if err != nil {
		respondError(c, err, "Fail to upload images")
		return
	}
	c.JSON(http.StatusOK, bulkUploadResponse{
		UploadURLs: lo.Map(slots, func(s images.UploadSlot, _ int) string { return s.UploadURL }),
		IDs:        lo.Map(slots, func(s images.UploadSlot, _ int) string { return s.ID }),
		Uploads:    slots,
	})
}

// StoreExternalImage
// (POST /label-images/external)
func (impl *ServerImpl) StoreExternalImage(c *gin.Context) {
	var req externalImageRequest
	if !bindBody(c, &req) {
		return
	}
	if req.ImageURL == "" {
		respondMessage(c, http.StatusBadRequest, "Invalid image URL")
		return
	}
	image, err := impl.coordinator.StoreExternalReference(c.Request.Context(), req.ImageURL, req.Label, actorFrom(c))
	if err != nil {
		respondError(c, err, "Fail to store external image")
		return
	}
	c.JSON(http.StatusOK, createdImageResponse{ID: image.ID, FileName: image.FileName})
}

// UploadDirect
// (POST /label-images/direct)
func (impl *ServerImpl) UploadDirect(c *gin.Context) {
	var req directUploadRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Base64Image == "" {
		respondMessage(c, http.StatusBadRequest, "Missing image data")
		return
	}

	// 限制圖片
	// 	1. 解碼後不超過上限
	// 	2. MIME類型為不包含腳本的圖片檔案
	maxBytes := impl.config.Uploads.DirectUploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultDirectUploadMaxBytes
	}
	content, err := internalS3.DecodeBase64Image(req.Base64Image, maxBytes)
	if err != nil {
		var reachLimit *internalS3.ReachLimitError
		if errors.As(err, &reachLimit) {
			respondMessage(c, http.StatusBadRequest, reachLimit.Error())
			return
		}
		respondMessage(c, http.StatusBadRequest, "Invalid image data")
		return
	}
	mimeType, secure := internalS3.DetectSecureImage(content)
	if !secure {
		respondMessage(c, http.StatusBadRequest, fmt.Sprintf("Invalid image type: %s", mimeType))
		return
	}
	// 以實際內容判斷的類型為準
	req.ContentType = mimeType

	image, err := impl.coordinator.UploadDirect(c.Request.Context(), req.UploadIntent, content, actorFrom(c))
	if err != nil {
		respondError(c, err, "Fail to upload image")
		return
	}
	c.JSON(http.StatusOK, createdImageResponse{ID: image.ID, FileName: image.FileName})
}

// ConfirmUploads
// (POST /label-images/confirm-upload)
func (impl *ServerImpl) ConfirmUploads(c *gin.Context) {
	var req confirmUploadRequest
	if !bindBody(c, &req) {
		return
	}
	report, err := impl.coordinator.ConfirmUploads(c.Request.Context(), req.Data, actorFrom(c))
	if err != nil {
		respondError(c, err, "Fail to confirm uploads")
		return
	}
	c.JSON(http.StatusOK, report)
}

// BulkDelete
// (POST /label-images/bulk-delete)
func (impl *ServerImpl) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if !bindBody(c, &req) {
		return
	}
	report, err := impl.editor.BulkDelete(c.Request.Context(), req.IDs, actorFrom(c))
	if err != nil {
		respondError(c, err, "Fail to delete images")
		return
	}
	c.JSON(http.StatusOK, bulkDeleteResponse{Message: "Images deleted successfully", DeleteReport: report})
}

// SetLabel
// (PUT /label-images)
func (impl *ServerImpl) SetLabel(c *gin.Context) {
	var req setLabelRequest
	if !bindBody(c, &req) {
		return
	}
	image, err := impl.editor.SetLabel(c.Request.Context(), req.ID, req.Label, actorFrom(c))
	if err != nil {
		respondError(c, err, "Fail to save labels")
		return
	}
	c.JSON(http.StatusOK, image)
}
