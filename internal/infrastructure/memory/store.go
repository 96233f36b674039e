// Package memory implements the repositories on in-process maps for tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/domain/repository"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu     sync.RWMutex
	users  map[primitive.ObjectID]entity.User
	videos map[primitive.ObjectID]entity.Video
	subs   []entity.Subscription
}

func NewStore() *Store {
	return &Store{
		users:  make(map[primitive.ObjectID]entity.User),
		videos: make(map[primitive.ObjectID]entity.Video),
	}
}

// UserRepository implements repository.UserRepository and repository.ChannelRepository.
type UserRepository struct{ s *Store }

// VideoRepository implements repository.VideoRepository.
type VideoRepository struct{ s *Store }

func (s *Store) Users() *UserRepository   { return &UserRepository{s: s} }
func (s *Store) Videos() *VideoRepository { return &VideoRepository{s: s} }

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.ChannelRepository = (*UserRepository)(nil)
	_ repository.VideoRepository   = (*VideoRepository)(nil)
)

func cloneUser(u entity.User) *entity.User {
	u.WatchHistory = append([]primitive.ObjectID{}, u.WatchHistory...)
	return &u
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Username = norm(u.Username)
	u.Email = norm(u.Email)
	for _, existing := range r.s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *cloneUser(*u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	username, email = norm(username), norm(email)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(_ context.Context, id primitive.ObjectID, in repository.UserUpdate) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if in.Username != nil {
		name := norm(*in.Username)
		for oid, other := range r.s.users {
			if oid != id && other.Username == name {
				return nil, repository.ErrDuplicate
			}
		}
		u.Username = name
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	if in.CoverImage != nil {
		u.CoverImage = *in.CoverImage
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return cloneUser(u), nil
}

func (r *UserRepository) mutate(id primitive.ObjectID, fn func(u *entity.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return r.mutate(id, func(u *entity.User) {
		u.Password = hash
		u.UpdatedAt = time.Now().UTC()
	})
}

func (r *UserRepository) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	return r.mutate(id, func(u *entity.User) { u.RefreshToken = token })
}

func (r *UserRepository) PushWatchHistory(_ context.Context, id, videoID primitive.ObjectID) error {
	return r.mutate(id, func(u *entity.User) {
		next := make([]primitive.ObjectID, 0, len(u.WatchHistory)+1)
		next = append(next, videoID)
		for _, v := range u.WatchHistory {
			if v != videoID {
				next = append(next, v)
			}
		}
		u.WatchHistory = next
	})
}

func (r *UserRepository) ChannelProfile(_ context.Context, username string, viewer primitive.ObjectID) (*entity.ChannelProfile, error) {
	username = norm(username)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username != username {
			continue
		}
		p := &entity.ChannelProfile{
			ID:         u.ID,
			FullName:   u.FullName,
			Username:   u.Username,
			Email:      u.Email,
			Avatar:     u.Avatar,
			CoverImage: u.CoverImage,
		}
		for _, s := range r.s.subs {
			if s.Channel == u.ID {
				p.SubscriberCount++
				if s.Subscriber == viewer {
					p.IsSubscribed = true
				}
			}
			if s.Subscriber == u.ID {
				p.SubscribedToCount++
			}
		}
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) WatchHistory(_ context.Context, userID primitive.ObjectID) ([]entity.VideoWithOwner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []entity.VideoWithOwner{}
	u, ok := r.s.users[userID]
	if !ok {
		return out, nil
	}
	for _, id := range u.WatchHistory {
		if v, ok := r.s.videos[id]; ok {
			out = append(out, r.s.withOwner(v))
		}
	}
	return out, nil
}

func (r *UserRepository) Subscribe(_ context.Context, subscriber, channel primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.subs {
		if s.Subscriber == subscriber && s.Channel == channel {
			return nil
		}
	}
	now := time.Now().UTC()
	r.s.subs = append(r.s.subs, entity.Subscription{
		ID:         primitive.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return nil
}

// withOwner must be called with the lock held.
func (s *Store) withOwner(v entity.Video) entity.VideoWithOwner {
	out := entity.VideoWithOwner{Video: v}
	if u, ok := s.users[v.Owner]; ok {
		out.Uploader = &entity.UploaderSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
	}
	return out
}

func (r *VideoRepository) Create(_ context.Context, v *entity.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	r.s.videos[v.ID] = *v
	return nil
}

func (r *VideoRepository) GetByID(_ context.Context, id primitive.ObjectID) (*entity.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *VideoRepository) GetWithOwner(_ context.Context, id primitive.ObjectID) (*entity.VideoWithOwner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := r.s.withOwner(v)
	return &out, nil
}

func (r *VideoRepository) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.Views++
	r.s.videos[id] = v
	return nil
}

func (r *VideoRepository) List(_ context.Context, q repository.VideoQuery) (*repository.VideoPage, error) {
	q = q.Normalize()
	needle := strings.ToLower(strings.TrimSpace(q.Query))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]entity.Video, 0, len(r.s.videos))
	for _, v := range r.s.videos {
		if !v.IsPublished {
			continue
		}
		if !q.Owner.IsZero() && v.Owner != q.Owner {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(v.Title), needle) &&
			!strings.Contains(strings.ToLower(v.Description), needle) {
			continue
		}
		matched = append(matched, v)
	}
	sort.Slice(matched, func(i, j int) bool {
		c := compareVideos(matched[i], matched[j], q.SortBy)
		if c == 0 {
			c = strings.Compare(matched[i].ID.Hex(), matched[j].ID.Hex())
		}
		if q.SortDesc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(matched))
	start := len(matched)
	if skip := q.Skip(); skip >= 0 && skip < total {
		start = int(skip)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	docs := make([]entity.VideoWithOwner, 0, end-start)
	for _, v := range matched[start:end] {
		docs = append(docs, r.s.withOwner(v))
	}
	return repository.NewVideoPage(docs, total, q.Page, q.Limit), nil
}

func compareVideos(a, b entity.Video, field string) int {
	switch field {
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "views":
		return cmpOrdered(a.Views, b.Views)
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "duration":
		return cmpOrdered(a.Duration, b.Duration)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *VideoRepository) Update(_ context.Context, id primitive.ObjectID, in repository.VideoUpdate) (*entity.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if in.Title != nil {
		v.Title = *in.Title
	}
	if in.Description != nil {
		v.Description = *in.Description
	}
	if in.Thumbnail != nil {
		v.Thumbnail = *in.Thumbnail
	}
	v.UpdatedAt = time.Now().UTC()
	r.s.videos[id] = v
	return &v, nil
}

func (r *VideoRepository) TogglePublish(_ context.Context, id primitive.ObjectID) (*entity.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v.IsPublished = !v.IsPublished
	v.UpdatedAt = time.Now().UTC()
	r.s.videos[id] = v
	return &v, nil
}

func (r *VideoRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.videos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.videos, id)
	return nil
}
