package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bindBody 解析 JSON body，失敗時直接回應 400
func bindBody(c *gin.Context, req any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondMessage(c, http.StatusBadRequest, "Missing request body")
		return false
	}
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			respondMessage(c, http.StatusBadRequest, "Missing request body")
			return false
		}
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
