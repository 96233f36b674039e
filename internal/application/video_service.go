package application

import (
	"context"
	"errors"
	"expvar"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-api/internal/domain/repository"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/media"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/search"
	"github.com/oksasatya/vidtube-api/pkg/validation"
)

var videoViews = expvar.NewInt("video_views")

// VideoService implements video CRUD with owner-only mutation.
type VideoService struct {
	Videos repo.VideoRepository
	Users  repo.UserRepository
	Media  media.Store
	Prober media.DurationProber
	Index  SearchIndex
	Logger *logrus.Logger
}

func NewVideoService(videos repo.VideoRepository, users repo.UserRepository, store media.Store, prober media.DurationProber, logger *logrus.Logger) *VideoService {
	if prober == nil {
		prober = media.NoProbe{}
	}
	return &VideoService{Videos: videos, Users: users, Media: store, Prober: prober, Logger: logger}
}

// ListVideosInput is the raw listing query as received over HTTP.
type ListVideosInput struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

// List returns one page of published videos.
func (s *VideoService) List(ctx context.Context, in ListVideosInput) (*repo.VideoPage, error) {
	q := repo.VideoQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Query:    strings.TrimSpace(in.Query),
		SortBy:   in.SortBy,
		SortDesc: true,
	}
	if in.SortBy != "" && !repo.Sortable(in.SortBy) {
		return nil, ValidationError("invalid sortBy", validation.FieldError{Field: "sortBy", Message: "must be one of: createdAt, updatedAt, views, title, duration"})
	}
	switch strings.ToLower(in.SortType) {
	case "", "desc":
	case "asc":
		q.SortDesc = false
	default:
		return nil, ValidationError("invalid sortType", validation.FieldError{Field: "sortType", Message: "must be one of: asc, desc"})
	}
	if in.UserID != "" {
		owner, err := primitive.ObjectIDFromHex(in.UserID)
		if err != nil {
			return nil, ValidationError("invalid userId", validation.FieldError{Field: "userId", Message: "must be a valid id"})
		}
		q.Owner = owner
	}

	page, err := s.Videos.List(ctx, q.Normalize())
	if err != nil {
		s.Logger.WithError(err).Error("list videos failed")
		return nil, InternalError("something went wrong while fetching videos", err)
	}
	return page, nil
}

type PublishInput struct {
	Title       string
	Description string
	VideoFile   *Upload
	Thumbnail   *Upload
}

// Publish uploads the media and stores a published video owned by owner.
func (s *VideoService) Publish(ctx context.Context, owner primitive.ObjectID, in PublishInput) (*entity.VideoWithOwner, error) {
	defer removeUploads(s.Logger, in.VideoFile, in.Thumbnail)

	if missing := blankFields("title", in.Title, "description", in.Description); len(missing) > 0 {
		return nil, ValidationError("title and description are required", missing...)
	}
	var missing []any
	if in.VideoFile == nil {
		missing = append(missing, validation.FieldError{Field: "videoFile", Message: "is required"})
	}
	if in.Thumbnail == nil {
		missing = append(missing, validation.FieldError{Field: "thumbnail", Message: "is required"})
	}
	if len(missing) > 0 {
		return nil, ValidationError("video file and thumbnail are required", missing...)
	}

	duration, err := s.Prober.Duration(in.VideoFile.Path)
	if err != nil {
		s.Logger.WithError(err).Warn("duration probe failed, storing 0")
		duration = 0
	}

	id := primitive.NewObjectID()
	videoURL, err := saveUpload(ctx, s.Media, "videos", owner.Hex(), in.VideoFile)
	if err != nil {
		s.Logger.WithError(err).WithField("video_id", id.Hex()).Error("video upload failed")
		return nil, InternalError("error while uploading video", err)
	}
	thumbURL, err := saveUpload(ctx, s.Media, "thumbnails", owner.Hex(), in.Thumbnail)
	if err != nil {
		s.Logger.WithError(err).WithField("video_id", id.Hex()).Error("thumbnail upload failed")
		deleteMedia(ctx, s.Media, s.Logger, videoURL)
		return nil, InternalError("error while uploading thumbnail", err)
	}

	v := &entity.Video{
		ID:          id,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Duration:    duration,
		IsPublished: true,
		Owner:       owner,
	}
	if err := s.Videos.Create(ctx, v); err != nil {
		deleteMedia(ctx, s.Media, s.Logger, videoURL)
		deleteMedia(ctx, s.Media, s.Logger, thumbURL)
		s.Logger.WithError(err).WithField("video_id", id.Hex()).Error("create video failed")
		return nil, InternalError("something went wrong while publishing the video", err)
	}
	s.indexVideo(ctx, v)

	out, err := s.Videos.GetWithOwner(ctx, v.ID)
	if err != nil {
		return nil, s.lookupErr(err, v.ID)
	}
	return out, nil
}

// Get returns a video, counts the view and records it in the viewer's history.
// Unpublished videos are only visible to their owner.
func (s *VideoService) Get(ctx context.Context, rawID string, viewer primitive.ObjectID) (*entity.VideoWithOwner, error) {
	id, err := parseVideoID(rawID)
	if err != nil {
		return nil, err
	}
	v, err := s.Videos.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err, id)
	}
	if !v.IsPublished && !v.OwnedBy(viewer) {
		return nil, NotFoundError("video not found")
	}

	if err := s.Videos.IncrementViews(ctx, id); err != nil {
		return nil, s.lookupErr(err, id)
	}
	videoViews.Add(1)
	if !viewer.IsZero() {
		if err := s.Users.PushWatchHistory(ctx, viewer, id); err != nil {
			s.Logger.WithError(err).WithField("user_id", viewer.Hex()).WithField("video_id", id.Hex()).Warn("watch history update failed")
		}
	}

	out, err := s.Videos.GetWithOwner(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err, id)
	}
	return out, nil
}

type UpdateVideoInput struct {
	Title       *string
	Description *string
	Thumbnail   *Upload
}

// Update changes metadata and optionally replaces the thumbnail. Owner only.
func (s *VideoService) Update(ctx context.Context, rawID string, userID primitive.ObjectID, in UpdateVideoInput) (*entity.Video, error) {
	defer removeUploads(s.Logger, in.Thumbnail)

	v, err := s.owned(ctx, rawID, userID)
	if err != nil {
		return nil, err
	}
	if in.Title == nil && in.Description == nil && in.Thumbnail == nil {
		return nil, ValidationError("nothing to update")
	}
	change := repo.VideoUpdate{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ValidationError("title cannot be empty", validation.FieldError{Field: "title", Message: "is required"})
		}
		change.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			return nil, ValidationError("description cannot be empty", validation.FieldError{Field: "description", Message: "is required"})
		}
		change.Description = &d
	}
	var newThumb string
	if in.Thumbnail != nil {
		newThumb, err = saveUpload(ctx, s.Media, "thumbnails", userID.Hex(), in.Thumbnail)
		if err != nil {
			s.Logger.WithError(err).WithField("video_id", v.ID.Hex()).Error("thumbnail upload failed")
			return nil, InternalError("error while uploading thumbnail", err)
		}
		change.Thumbnail = &newThumb
	}

	updated, err := s.Videos.Update(ctx, v.ID, change)
	if err != nil {
		deleteMedia(ctx, s.Media, s.Logger, newThumb)
		return nil, s.lookupErr(err, v.ID)
	}
	if newThumb != "" && v.Thumbnail != "" && v.Thumbnail != newThumb {
		deleteMedia(ctx, s.Media, s.Logger, v.Thumbnail)
	}
	s.indexVideo(ctx, updated)
	return updated, nil
}

// Delete removes the video and its media. Owner only.
func (s *VideoService) Delete(ctx context.Context, rawID string, userID primitive.ObjectID) error {
	v, err := s.owned(ctx, rawID, userID)
	if err != nil {
		return err
	}
	if err := s.Videos.Delete(ctx, v.ID); err != nil {
		return s.lookupErr(err, v.ID)
	}
	deleteMedia(ctx, s.Media, s.Logger, v.VideoFile)
	deleteMedia(ctx, s.Media, s.Logger, v.Thumbnail)
	if s.Index != nil {
		if err := s.Index.DeleteVideo(ctx, v.ID.Hex()); err != nil {
			s.Logger.WithError(err).WithField("video_id", v.ID.Hex()).Warn("es delete failed")
		}
	}
	return nil
}

// TogglePublish flips the publish flag. Owner only.
func (s *VideoService) TogglePublish(ctx context.Context, rawID string, userID primitive.ObjectID) (*entity.Video, error) {
	v, err := s.owned(ctx, rawID, userID)
	if err != nil {
		return nil, err
	}
	updated, err := s.Videos.TogglePublish(ctx, v.ID)
	if err != nil {
		return nil, s.lookupErr(err, v.ID)
	}
	s.indexVideo(ctx, updated)
	return updated, nil
}

// Search queries the search index; empty when search is disabled.
func (s *VideoService) Search(ctx context.Context, q string, size int) ([]search.VideoDoc, error) {
	if s.Index == nil || strings.TrimSpace(q) == "" {
		return []search.VideoDoc{}, nil
	}
	out, err := s.Index.SearchVideos(ctx, q, size)
	if err != nil {
		s.Logger.WithError(err).Warn("video search failed")
		return nil, InternalError("search is unavailable", err)
	}
	return out, nil
}

func (s *VideoService) owned(ctx context.Context, rawID string, userID primitive.ObjectID) (*entity.Video, error) {
	id, err := parseVideoID(rawID)
	if err != nil {
		return nil, err
	}
	v, err := s.Videos.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err, id)
	}
	if !v.OwnedBy(userID) {
		return nil, ForbiddenError("you are not allowed to modify this video")
	}
	return v, nil
}

func (s *VideoService) indexVideo(ctx context.Context, v *entity.Video) {
	if s.Index == nil || v == nil {
		return
	}
	if err := s.Index.IndexVideo(ctx, v); err != nil {
		s.Logger.WithError(err).WithField("video_id", v.ID.Hex()).Warn("es index failed")
	}
}

func (s *VideoService) lookupErr(err error, id primitive.ObjectID) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NotFoundError("video not found")
	}
	s.Logger.WithError(err).WithField("video_id", id.Hex()).Error("video store failed")
	return InternalError("something went wrong", err)
}

func parseVideoID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, ValidationError("invalid video id", validation.FieldError{Field: "videoId", Message: "must be a valid id"})
	}
	return id, nil
}
