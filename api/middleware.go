package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"labelme/models"
)

const (
	contextKeyActor        = "actor"
	headerObjectEventToken = "X-Object-Events-Token"
)

// corsMiddleware 替每個回應加上 CORS header，OPTIONS 直接回應 200
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCORSHeaders(c.Writer.Header())
		if c.Request.Method == http.MethodOptions {
			respondMessage(c, http.StatusOK, "OK")
			return
		}
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With(slog.String("caller", "HTTP"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "Handled request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("Recovered from panic", slog.String("path", c.Request.URL.Path), slog.Any("panic", recovered))
		respondMessage(c, http.StatusInternalServerError, "Internal Server Error")
	})
}

// bearerToken 取出 Authorization header 中的 token，也接受沒有 Bearer 前綴的寫法
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return header
}

// requireUser 驗證 ID token，並把使用者身分放進 context
func (impl *ServerImpl) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			respondMessage(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		identity, err := impl.deps.Verifier.Verify(c.Request.Context(), token)
		if err != nil {
			impl.logger.Warn("Fail to verify token", slog.String("path", c.Request.URL.Path), slog.Any("error", err))
			respondMessage(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Set(contextKeyActor, models.Actor{UserID: identity.Subject, Username: identity.Username})
		c.Next()
	}
}

// requireObjectEventsToken 檢查物件事件 webhook 的共用密鑰
func (impl *ServerImpl) requireObjectEventsToken() gin.HandlerFunc {
	expected := []byte(impl.config.Auth.ObjectEventsToken)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			respondMessage(c, http.StatusNotFound, "Not Found")
			return
		}
		given := []byte(c.GetHeader(headerObjectEventToken))
		if subtle.ConstantTimeCompare(given, expected) != 1 {
			respondMessage(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	actor, _ := c.MustGet(contextKeyActor).(models.Actor)
	return actor
}
