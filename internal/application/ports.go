package application

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/media"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/search"
	"github.com/oksasatya/vidtube-api/pkg/mailer"
)

// SearchIndex is the slice of the search indexer the services use. nil disables search.
type SearchIndex interface {
	IndexChannel(ctx context.Context, u *entity.User) error
	IndexVideo(ctx context.Context, v *entity.Video) error
	DeleteVideo(ctx context.Context, id string) error
	SearchChannels(ctx context.Context, q string, size int) ([]search.ChannelDoc, error)
	SearchVideos(ctx context.Context, q string, size int) ([]search.VideoDoc, error)
}

// JobPublisher queues background jobs. nil disables notifications.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Upload is a multipart file already spooled to local disk by the handler.
type Upload struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// removeUploads deletes spooled files. Failures are logged and ignored.
func removeUploads(logger *logrus.Logger, uploads ...*Upload) {
	for _, up := range uploads {
		if up == nil || up.Path == "" {
			continue
		}
		if err := os.Remove(up.Path); err != nil && !os.IsNotExist(err) {
			logger.WithError(err).WithField("path", up.Path).Warn("temp upload cleanup failed")
		}
	}
}

// saveUpload streams up into store under a fresh key for kind/owner.
func saveUpload(ctx context.Context, store media.Store, kind, owner string, up *Upload) (string, error) {
	f, err := os.Open(up.Path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return store.Save(ctx, media.ObjectKey(kind, owner, up.Filename), f, up.Size, contentType)
}

// deleteMedia removes the object behind rawURL. Failures are logged and ignored.
func deleteMedia(ctx context.Context, store media.Store, logger *logrus.Logger, rawURL string) {
	key := store.KeyFromURL(rawURL)
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		logger.WithError(err).WithField("key", key).Warn("media delete failed")
	}
}

// publish queues job when a publisher is configured. Failures are logged and ignored.
func publish(ctx context.Context, jobs JobPublisher, logger *logrus.Logger, job mailer.EmailJob) {
	if jobs == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := jobs.PublishJSON(c, job); err != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("publish email job failed")
	}
}
