package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-api/internal/application"
	"github.com/oksasatya/vidtube-api/pkg/validation"
)

// Spooler writes multipart file parts to local disk so services can stream
// or probe them. Services remove the files once they are done.
type Spooler struct {
	Dir      string
	MaxBytes int64
}

// spool returns nil, nil when field is absent from the form.
func (s Spooler) spool(c *gin.Context, field string) (*application.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, application.ValidationError("invalid multipart form", validation.FieldError{Field: field, Message: err.Error()})
	}
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return nil, application.ValidationError(
			fmt.Sprintf("%s exceeds the %d MB limit", field, s.MaxBytes>>20),
			validation.FieldError{Field: field, Message: "file too large"},
		)
	}

	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	dst := filepath.Join(dir, "upload-"+uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return nil, application.InternalError("failed to receive "+field, err)
	}
	return &application.Upload{
		Path:        dst,
		Filename:    filepath.Base(fh.Filename),
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}, nil
}

// discard removes spooled files that never reached a service.
func discard(logger *logrus.Logger, uploads ...*application.Upload) {
	for _, up := range uploads {
		if up == nil || up.Path == "" {
			continue
		}
		if err := os.Remove(up.Path); err != nil && !os.IsNotExist(err) {
			logger.WithError(err).WithField("path", up.Path).Warn("temp upload cleanup failed")
		}
	}
}
