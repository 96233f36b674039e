package router

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vidtube-api/internal/application"
	"github.com/oksasatya/vidtube-api/internal/container"
	handlers "github.com/oksasatya/vidtube-api/internal/interface/http"
	"github.com/oksasatya/vidtube-api/internal/interface/middleware"
	"github.com/oksasatya/vidtube-api/internal/router/modules"
)

type moduleDeps struct {
	Users        *handlers.UserHandler
	Videos       *handlers.VideoHandler
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
}

func buildDeps() moduleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()
	users := container.GetUserRepo()

	sessions := application.NewSessionService(users, jwt, logger)
	userSvc := application.NewUserService(users, container.GetChannelRepo(), sessions, container.GetMedia(), logger)
	userSvc.AppName = cfg.AppName
	videoSvc := application.NewVideoService(container.GetVideoRepo(), users, container.GetMedia(), container.GetProber(), logger)

	// Optional collaborators are only assigned when configured so the
	// services see a nil interface rather than a typed nil pointer.
	if idx := container.GetIndexer(); idx != nil {
		userSvc.Index = idx
		videoSvc.Index = idx
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		userSvc.Jobs = pub
	}

	uploads := handlers.Spooler{Dir: cfg.UploadTempDir, MaxBytes: cfg.MaxUploadBytes()}
	return moduleDeps{
		Users:        handlers.NewUserHandler(userSvc, logger, container.GetCookies(), uploads),
		Videos:       handlers.NewVideoHandler(videoSvc, logger, uploads),
		Auth:         middleware.Auth(jwt, users),
		OptionalAuth: middleware.OptionalAuth(jwt, users),
	}
}

// InitModules builds the services from the container and registers every
// feature module. Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	deps := buildDeps()
	r.Add(modules.NewUserModule(deps.Users, deps.Auth))
	r.Add(modules.NewVideoModule(deps.Videos, deps.Auth, deps.OptionalAuth))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
