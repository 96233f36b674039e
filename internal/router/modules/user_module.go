package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/vidtube-api/internal/interface/http"
)

// UserModule wires account, session and channel routes under /users.
// Public: register, login, refresh-token
// Protected: everything else
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, auth gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, Auth: auth}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.POST("/register", m.Handler.Register)
	users.POST("/login", m.Handler.Login)
	users.POST("/refresh-token", m.Handler.Refresh)

	auth := users.Group("/")
	auth.Use(m.Auth)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.PATCH("/change-password", m.Handler.ChangePassword)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PATCH("/update-account", m.Handler.UpdateAccount)
		auth.PATCH("/update-avatar", m.Handler.UpdateAvatar)
		auth.PATCH("/update-cover-image", m.Handler.UpdateCoverImage)
		auth.GET("/c/channel/:username", m.Handler.ChannelProfile)
		auth.GET("/watch-history", m.Handler.WatchHistory)
		// Channel search via Elasticsearch
		auth.GET("/search", m.Handler.Search)
	}
}
