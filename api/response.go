package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"labelme/models"
)

// corsHeaders 允許任何來源的瀏覽器呼叫
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "OPTIONS, GET, POST, PUT, DELETE",
	"Access-Control-Allow-Headers": "Content-Type, Authorization",
}

type messageResponse struct {
	Message string `json:"message"`
}

func setCORSHeaders(h http.Header) {
	for name, value := range corsHeaders {
		h.Set(name, value)
	}
}

func respondMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, messageResponse{Message: message})
}

// respondError 依錯誤分類決定狀態碼，5xx 只回傳 fallback，完整錯誤寫進日誌
func respondError(c *gin.Context, err error, fallback string) {
	kind := models.KindOf(err)
	status := kind.StatusCode()
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
	}
	respondMessage(c, status, models.PublicMessage(err, fallback))
}
