package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"labelme/adapters/gormstore"
	"labelme/adapters/oidc"
	"labelme/images"
)

const (
	testSecret            = "0123456789abcdef0123456789abcdef"
	testIssuer            = "labelme-test"
	testObjectEventsToken = "object-events-secret"
)

var testIdentity = oidc.Identity{Subject: "user-1", Username: "alice"}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

type testServer struct {
	impl        *ServerImpl
	handler     http.Handler
	objects     *images.MockIObjectStore
	metadata    *gormstore.ImageStore
	credentials *MockICredentialService
	verifier    *oidc.HMACVerifier
}

func setupServer(t *testing.T, configure ...func(*ServerConfig)) *testServer {
	ctrl := gomock.NewController(t)

	db, err := gormstore.Open(gormstore.Config{
		Driver: gormstore.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	metadata, err := gormstore.NewImageStore(db)
	require.NoError(t, err)
	require.NoError(t, metadata.Migrate(context.Background()))

	verifier, err := oidc.NewHMACVerifier(testSecret, testIssuer)
	require.NoError(t, err)

	config := ServerConfig{
		Auth:    AuthConfig{Mode: AuthModeHMAC, HMACSecret: testSecret, HMACIssuer: testIssuer, ObjectEventsToken: testObjectEventsToken},
		Uploads: UploadsConfig{FanOutLimit: 2},
	}
	for _, fn := range configure {
		fn(&config)
	}

	s := &testServer{
		objects:     images.NewMockIObjectStore(ctrl),
		metadata:    metadata,
		credentials: NewMockICredentialService(ctrl),
		verifier:    verifier,
	}
	s.impl, err = NewServerWithDependencies(config, Dependencies{
		Objects:     s.objects,
		Metadata:    metadata,
		Credentials: s.credentials,
		Verifier:    verifier,
		Closers:     []func() error{sqlDB.Close},
	})
	require.NoError(t, err)
	require.NoError(t, s.impl.Start())
	t.Cleanup(s.impl.Close)
	s.handler = s.impl.Handler()
	return s
}

func (s *testServer) token(t *testing.T) string {
	token, err := s.verifier.Issue(testIdentity, time.Hour)
	require.NoError(t, err)
	return token
}

// do 送出請求，body 為 string 時原樣送出，其他型別編碼成 JSON
func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doAuthed(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	return s.do(t, method, path, body, map[string]string{"Authorization": "Bearer " + s.token(t)})
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decodeBody[messageResponse](t, rec).Message
}
