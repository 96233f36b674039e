package container

import (
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/vidtube-api/config"
	repo "github.com/oksasatya/vidtube-api/internal/domain/repository"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/media"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/search"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
)

// app-level container shared between main and the router.
// Everything is set once during startup; optional components stay nil.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	mongoClient *mongo.Client

	userRepo    repo.UserRepository
	channelRepo repo.ChannelRepository
	videoRepo   repo.VideoRepository

	mediaStore media.Store
	prober     media.DurationProber

	jwtManager *helpers.JWTManager
	cookies    *helpers.Manager

	rabbitPub *helpers.RabbitPublisher
	indexer   *search.Indexer
)

func SetConfig(c *config.Config)              { cfg = c }
func GetConfig() *config.Config               { return cfg }
func SetLogger(l *logrus.Logger)              { logger = l }
func GetLogger() *logrus.Logger               { return logger }
func SetMongo(c *mongo.Client)                { mongoClient = c }
func GetMongo() *mongo.Client                 { return mongoClient }
func SetMedia(s media.Store)                  { mediaStore = s }
func GetMedia() media.Store                   { return mediaStore }
func SetProber(p media.DurationProber)        { prober = p }
func GetProber() media.DurationProber         { return prober }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func GetJWT() *helpers.JWTManager             { return jwtManager }
func SetCookies(m *helpers.Manager)           { cookies = m }
func GetCookies() *helpers.Manager            { return cookies }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetIndexer(i *search.Indexer)            { indexer = i }
func GetIndexer() *search.Indexer             { return indexer }

// SetRepositories installs the storage driver chosen at startup.
func SetRepositories(users repo.UserRepository, channels repo.ChannelRepository, videos repo.VideoRepository) {
	userRepo, channelRepo, videoRepo = users, channels, videos
}

func GetUserRepo() repo.UserRepository       { return userRepo }
func GetChannelRepo() repo.ChannelRepository { return channelRepo }
func GetVideoRepo() repo.VideoRepository     { return videoRepo }
