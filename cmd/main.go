package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-api/config"
	"github.com/oksasatya/vidtube-api/internal/container"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/media"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/memory"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/mongodb"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/search"
	"github.com/oksasatya/vidtube-api/internal/interface/middleware"
	"github.com/oksasatya/vidtube-api/internal/router"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
	"github.com/oksasatya/vidtube-api/pkg/response"
	"github.com/oksasatya/vidtube-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	closeStorage, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStorage()

	closeMedia, err := setupMedia(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("media storage: %v", err)
	}
	defer closeMedia()

	setupSearch(cfg, logger)

	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; email notifications disabled")
		} else {
			container.SetRabbitPub(pub)
			defer pub.Close()
		}
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))
	container.SetCookies(helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure))

	// Gin engine and global middleware
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}
	r.GET("/healthz", func(c *gin.Context) {
		if client := container.GetMongo(); client != nil {
			pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := client.Ping(pctx, nil); err != nil {
				logger.WithError(err).Warn("health check: mongodb ping failed")
				response.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "driver": cfg.DBDriver}, "healthy")
	})
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "route not found", nil)
	})

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// setupStorage connects the repository driver and runs index migrations.
func setupStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (func(), error) {
	switch cfg.DBDriver {
	case "memory":
		logger.Warn("DB_DRIVER=memory: data is kept in process and lost on restart")
		store := memory.NewStore()
		container.SetRepositories(store.Users(), store.Users(), store.Videos())
		return func() {}, nil
	case "mongodb", "":
		client, err := mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		if err := mongodb.RunMigrations(client, cfg.MongoDB, cfg.MigrationsDir, logger); err != nil {
			_ = mongodb.Disconnect(client)
			return nil, fmt.Errorf("migrations: %w", err)
		}
		db := client.Database(cfg.MongoDB)
		users := mongodb.NewUserRepository(db)
		container.SetMongo(client)
		container.SetRepositories(users, users, mongodb.NewVideoRepository(db))
		return func() {
			if err := mongodb.Disconnect(client); err != nil {
				logger.WithError(err).Warn("mongodb disconnect failed")
			}
		}, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// setupMedia picks the object store and the duration prober.
func setupMedia(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (func(), error) {
	if cfg.FFProbeEnabled {
		container.SetProber(media.FFProbe{})
	} else {
		container.SetProber(media.NoProbe{})
	}

	closer := func() {}
	var (
		store media.Store
		err   error
	)
	switch cfg.MediaDriver {
	case "gcs", "":
		gcsClient, cerr := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if cerr != nil {
			return nil, fmt.Errorf("gcs client: %w", cerr)
		}
		closer = func() { _ = gcsClient.Close() }
		store, err = media.NewGCSStore(gcsClient, cfg.GCSBucket)
	case "minio":
		store, err = media.NewMinioStore(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
			PublicURL: cfg.MinioPublicURL,
		})
	case "s3":
		store, err = media.NewS3Store(ctx, media.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	case "memory":
		logger.Warn("MEDIA_DRIVER=memory: uploads are kept in process")
		store = media.NewMemoryStore("")
	default:
		err = fmt.Errorf("unknown MEDIA_DRIVER %q", cfg.MediaDriver)
	}
	if err != nil {
		closer()
		return nil, err
	}
	container.SetMedia(store)
	return closer, nil
}

// setupSearch enables Elasticsearch indexing when addresses are configured.
func setupSearch(cfg *config.Config, logger *logrus.Logger) {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 {
		logger.Info("ELASTICSEARCH_ADDRS empty; search disabled")
		return
	}
	es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch unavailable; search disabled")
		return
	}
	container.SetIndexer(search.NewIndexer(es, cfg.ESChannelsIndex, cfg.ESVideosIndex, logger))
}
