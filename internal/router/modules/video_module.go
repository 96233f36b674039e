package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/vidtube-api/internal/interface/http"
)

// VideoModule wires /videos. Listing, search and fetch are public; fetch
// resolves the viewer when a token is present. Mutations require auth and
// the handlers enforce ownership.
type VideoModule struct {
	Handler      *handlers.VideoHandler
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
}

func NewVideoModule(h *handlers.VideoHandler, auth, optionalAuth gin.HandlerFunc) *VideoModule {
	return &VideoModule{Handler: h, Auth: auth, OptionalAuth: optionalAuth}
}

func (m *VideoModule) Register(rg *gin.RouterGroup) {
	videos := rg.Group("/videos")
	videos.GET("", m.Handler.List)
	videos.GET("/search", m.Handler.Search)
	videos.GET("/:id", m.OptionalAuth, m.Handler.Get)

	auth := videos.Group("")
	auth.Use(m.Auth)
	{
		auth.POST("", m.Handler.Publish)
		auth.PATCH("/:id", m.Handler.Update)
		auth.DELETE("/:id", m.Handler.Delete)
		auth.PATCH("/:id/toggle-publish", m.Handler.TogglePublish)
	}
}
