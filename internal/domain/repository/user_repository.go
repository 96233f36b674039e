package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
)

// UserUpdate carries optional profile changes; nil fields are left untouched.
type UserUpdate struct {
	FullName   *string
	Username   *string
	Avatar     *string
	CoverImage *string
}

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	// GetByID returns the full document, secrets included.
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	// FindByUsernameOrEmail matches either field; empty arguments are ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	Update(ctx context.Context, id primitive.ObjectID, in UserUpdate) (*entity.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	// SetRefreshToken overwrites the stored token; an empty token clears it.
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	// PushWatchHistory moves videoID to the front of the user's history.
	PushWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error
}

// ChannelRepository serves the aggregated channel views.
type ChannelRepository interface {
	ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*entity.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]entity.VideoWithOwner, error)
	Subscribe(ctx context.Context, subscriber, channel primitive.ObjectID) error
}
