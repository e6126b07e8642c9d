package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_Fallbacks(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		message string
	}{
		{"預檢請求", http.MethodOptions, "/label-images", http.StatusOK, "OK"},
		{"未知路徑的預檢請求", http.MethodOptions, "/unknown", http.StatusOK, "OK"},
		{"未知路徑", http.MethodGet, "/unknown", http.StatusNotFound, "Not Found"},
		{"不支援的方法", http.MethodDelete, "/label-images", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"健康檢查", http.MethodGet, "/healthz", http.StatusOK, "OK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, nil, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, messageOf(t, rec))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

func TestRequireUser(t *testing.T) {
	s := setupServer(t)
	body := map[string]any{"id": "missing", "label": "cat"}

	t.Run("缺少token", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/label-images", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", messageOf(t, rec))
	})

	t.Run("無效的token", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/label-images", body, map[string]string{"Authorization": "Bearer not-a-jwt"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("不帶Bearer前綴", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/label-images", body, map[string]string{"Authorization": s.token(t)})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Image not found", messageOf(t, rec))
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc"))
	assert.Equal(t, "abc", bearerToken("abc"))
	assert.Equal(t, "", bearerToken(""))
}

func TestRoutes_Unique(t *testing.T) {
	s := setupServer(t)
	seen := map[string]bool{}
	for _, route := range s.impl.Routes() {
		key := route.Method + " " + route.Path
		assert.False(t, seen[key], key)
		seen[key] = true
	}
}
