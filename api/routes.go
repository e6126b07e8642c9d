package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthUser
	AuthObjectEvents
)

// Route 是路由表中的一個項目，每個項目只對應一個 handler
type Route struct {
	Method  string
	Path    string
	Name    string
	Auth    AuthMode
	Handler gin.HandlerFunc
}

// Routes 回傳完整的路由表
func (impl *ServerImpl) Routes() []Route {
	return []Route{
		{http.MethodPost, "/auth/signup", "SignUp", AuthNone, impl.SignUp},
		{http.MethodPost, "/auth/verify-user", "VerifyUser", AuthNone, impl.VerifyUser},
		{http.MethodPost, "/auth/resend-verification", "ResendVerification", AuthNone, impl.ResendVerification},
		{http.MethodPost, "/auth/login", "Login", AuthNone, impl.Login},

		{http.MethodGet, "/label-images", "ListImages", AuthNone, impl.ListImages},
		{http.MethodPut, "/label-images", "SetLabel", AuthUser, impl.SetLabel},
		{http.MethodPost, "/label-images/upload", "RequestUploadSlot", AuthUser, impl.RequestUploadSlot},
		{http.MethodPost, "/label-images/bulk-upload", "RequestBulkUploadSlots", AuthUser, impl.RequestBulkUploadSlots},
		{http.MethodPost, "/label-images/external", "StoreExternalImage", AuthUser, impl.StoreExternalImage},
		{http.MethodPost, "/label-images/direct", "UploadDirect", AuthUser, impl.UploadDirect},
		{http.MethodPost, "/label-images/confirm-upload", "ConfirmUploads", AuthUser, impl.ConfirmUploads},
		{http.MethodPost, "/label-images/bulk-delete", "BulkDelete", AuthUser, impl.BulkDelete},
		{http.MethodGet, "/label-images/events", "GalleryEvents", AuthNone, impl.GalleryEvents},

		{http.MethodPost, "/internal/object-events", "ObjectEvents", AuthObjectEvents, impl.ObjectEvents},
		{http.MethodGet, "/healthz", "Health", AuthNone, impl.Health},
	}
}

// Handler 依路由表建立 gin engine
func (impl *ServerImpl) Handler() http.Handler {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(recovery(), requestLogger(slog.Default()), corsMiddleware())
	engine.NoRoute(func(c *gin.Context) {
		respondMessage(c, http.StatusNotFound, "Not Found")
	})
	engine.NoMethod(func(c *gin.Context) {
		respondMessage(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	for _, route := range impl.Routes() {
		handlers := make([]gin.HandlerFunc, 0, 2)
		switch route.Auth {
		case AuthUser:
			handlers = append(handlers, impl.requireUser())
		case AuthObjectEvents:
			handlers = append(handlers, impl.requireObjectEventsToken())
		}
		handlers = append(handlers, route.Handler)
		engine.Handle(route.Method, route.Path, handlers...)
	}
	return engine
}
