package application

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/oksasatya/vidtube-api/internal/infrastructure/media"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/memory"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
	"github.com/oksasatya/vidtube-api/pkg/mailer"
)

type fixture struct {
	store  *memory.Store
	media  *media.MemoryStore
	jobs   *recordingJobs
	users  *UserService
	videos *VideoService
}

type recordingJobs struct {
	mu   sync.Mutex
	sent []mailer.EmailJob
}

func (r *recordingJobs) PublishJSON(_ context.Context, body any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := body.(mailer.EmailJob); ok {
		r.sent = append(r.sent, job)
	}
	return nil
}

func (r *recordingJobs) templates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, j := range r.sent {
		out = append(out, j.Template)
	}
	return out
}

type fixedProbe float64

func (p fixedProbe) Duration(string) (float64, error) { return float64(p), nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := helpers.NewNopLogger()
	store := memory.NewStore()
	ms := media.NewMemoryStore("http://media.test")
	jobs := &recordingJobs{}
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	sessions := NewSessionService(store.Users(), jwt, logger)
	users := NewUserService(store.Users(), store.Users(), sessions, ms, logger)
	users.Jobs = jobs
	users.AppName = "VidTube"
	videos := NewVideoService(store.Videos(), store.Users(), ms, fixedProbe(42.5), logger)

	return &fixture{store: store, media: ms, jobs: jobs, users: users, videos: videos}
}

// upload writes content to a temp file the way the handlers spool multipart parts.
func upload(t *testing.T, name, content string) *Upload {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return &Upload{Path: path, Filename: name, ContentType: "application/octet-stream", Size: int64(len(content))}
}
