package repository

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
)

// VideoQuery filters the published video listing.
type VideoQuery struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortDesc bool
	Owner    primitive.ObjectID // zero means any owner
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside int64.
	MaxPage = math.MaxInt64 / MaxLimit
	DefaultSort  = "createdAt"
)

var sortable = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"views":     true,
	"title":     true,
	"duration":  true,
}

// Sortable reports whether field may be used as a listing sort key.
func Sortable(field string) bool { return sortable[field] }

// Normalize applies paging defaults and bounds. Unknown sort fields fall back to createdAt.
func (q VideoQuery) Normalize() VideoQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if !Sortable(q.SortBy) {
		q.SortBy = DefaultSort
	}
	return q
}

// Skip is the number of documents before the requested page.
func (q VideoQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

// VideoPage is one page of the listing with its metadata.
type VideoPage struct {
	Docs        []entity.VideoWithOwner `json:"docs"`
	TotalDocs   int64                   `json:"totalDocs"`
	Limit       int                     `json:"limit"`
	Page        int                     `json:"page"`
	TotalPages  int                     `json:"totalPages"`
	HasPrevPage bool                    `json:"hasPrevPage"`
	HasNextPage bool                    `json:"hasNextPage"`
}

// NewVideoPage fills the derived paging fields.
func NewVideoPage(docs []entity.VideoWithOwner, total int64, page, limit int) *VideoPage {
	if docs == nil {
		docs = []entity.VideoWithOwner{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &VideoPage{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       limit,
		Page:        page,
		TotalPages:  pages,
		HasPrevPage: page > 1,
		HasNextPage: page < pages,
	}
}

// VideoUpdate carries optional metadata changes; nil fields are left untouched.
type VideoUpdate struct {
	Title       *string
	Description *string
	Thumbnail   *string
}

// VideoRepository defines the interface for video persistence.
type VideoRepository interface {
	Create(ctx context.Context, v *entity.Video) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Video, error)
	GetWithOwner(ctx context.Context, id primitive.ObjectID) (*entity.VideoWithOwner, error)
	// IncrementViews adds one view atomically.
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, q VideoQuery) (*VideoPage, error)
	Update(ctx context.Context, id primitive.ObjectID, in VideoUpdate) (*entity.Video, error)
	TogglePublish(ctx context.Context, id primitive.ObjectID) (*entity.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
