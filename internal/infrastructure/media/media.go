// Package media stores uploaded images and videos in object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned by stores missing their bucket settings.
var ErrNotConfigured = errors.New("media storage not configured")

// Store uploads objects and removes them by key.
type Store interface {
	// Save writes r under key and returns the public URL.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// KeyFromURL reverses Save's URL to the object key, or "" if the URL is foreign.
	KeyFromURL(rawURL string) string
}

// ObjectKey builds "<kind>/<owner>/<uuid><ext>" for a new upload.
func ObjectKey(kind, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(kind, owner, uuid.NewString()+ext)
}

// ObjectKeyFromURL strips base (scheme, host and path prefix) from rawURL.
func ObjectKeyFromURL(base, rawURL string) string {
	if rawURL == "" || base == "" {
		return ""
	}
	b, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Host != b.Host {
		return ""
	}
	prefix := strings.TrimSuffix(b.Path, "/") + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return ""
	}
	return strings.TrimPrefix(u.Path, prefix)
}

func joinURL(base, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), strings.TrimLeft(key, "/"))
}
