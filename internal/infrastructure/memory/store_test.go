package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/domain/repository"
)

func mustUser(t *testing.T, r *UserRepository, username, email string) *entity.User {
	t.Helper()
	u := &entity.User{Username: username, Email: email, FullName: username, Avatar: "a.png"}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()
	mustUser(t, users, "Ada", "ada@example.com")

	if err := users.Create(ctx, &entity.User{Username: "ada", Email: "other@example.com"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	if err := users.Create(ctx, &entity.User{Username: "other", Email: "ADA@example.com"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	u, err := users.FindByUsernameOrEmail(ctx, "", "ada@EXAMPLE.com")
	if err != nil || u.Username != "ada" {
		t.Fatalf("lookup by email failed: %v %v", u, err)
	}
}

func TestChannelProfileCounts(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()
	a := mustUser(t, users, "alice", "alice@example.com")
	b := mustUser(t, users, "bob", "bob@example.com")

	p, err := users.ChannelProfile(ctx, "ALICE", b.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.SubscriberCount != 0 || p.SubscribedToCount != 0 || p.IsSubscribed {
		t.Fatalf("expected empty counts, got %+v", p)
	}

	_ = users.Subscribe(ctx, b.ID, a.ID)
	_ = users.Subscribe(ctx, b.ID, a.ID)
	p, _ = users.ChannelProfile(ctx, "alice", b.ID)
	if p.SubscriberCount != 1 || !p.IsSubscribed {
		t.Fatalf("expected one subscriber seen by bob, got %+v", p)
	}
	p, _ = users.ChannelProfile(ctx, "alice", primitive.NilObjectID)
	if p.IsSubscribed {
		t.Fatal("anonymous viewer is never subscribed")
	}
	p, _ = users.ChannelProfile(ctx, "bob", a.ID)
	if p.SubscribedToCount != 1 || p.SubscriberCount != 0 {
		t.Fatalf("unexpected bob counts %+v", p)
	}

	if _, err := users.ChannelProfile(ctx, "nobody", a.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWatchHistoryMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users, videos := s.Users(), s.Videos()
	u := mustUser(t, users, "viewer", "viewer@example.com")

	v1 := &entity.Video{Title: "one", Owner: u.ID, IsPublished: true}
	v2 := &entity.Video{Title: "two", Owner: u.ID, IsPublished: true}
	_ = videos.Create(ctx, v1)
	_ = videos.Create(ctx, v2)

	_ = users.PushWatchHistory(ctx, u.ID, v1.ID)
	_ = users.PushWatchHistory(ctx, u.ID, v2.ID)
	_ = users.PushWatchHistory(ctx, u.ID, v1.ID)

	hist, err := users.WatchHistory(ctx, u.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].ID != v1.ID || hist[1].ID != v2.ID {
		t.Fatalf("unexpected order %v", hist)
	}
	if hist[0].Uploader == nil || hist[0].Uploader.Username != "viewer" {
		t.Fatal("uploader summary missing")
	}

	_ = videos.Delete(ctx, v2.ID)
	hist, _ = users.WatchHistory(ctx, u.ID)
	if len(hist) != 1 {
		t.Fatalf("deleted videos should drop out, got %d", len(hist))
	}
}

func TestListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := mustUser(t, s.Users(), "owner", "owner@example.com")
	other := mustUser(t, s.Users(), "other", "other@example.com")
	videos := s.Videos()

	seed := []entity.Video{
		{Title: "A Test video", Owner: owner.ID, IsPublished: true, Views: 5},
		{Title: "plain", Description: "contains TEST here", Owner: other.ID, IsPublished: true, Views: 9},
		{Title: "test hidden", Owner: owner.ID, IsPublished: false},
		{Title: "unrelated", Owner: owner.ID, IsPublished: true, Views: 1},
	}
	for i := range seed {
		if err := videos.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := videos.List(ctx, repository.VideoQuery{Query: "test", SortBy: "views", SortDesc: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalDocs != 2 || len(page.Docs) != 2 {
		t.Fatalf("expected two published matches, got %d", page.TotalDocs)
	}
	if page.Docs[0].Views != 9 {
		t.Fatal("expected views descending")
	}
	for _, d := range page.Docs {
		if !d.IsPublished {
			t.Fatal("unpublished video listed")
		}
	}

	page, _ = videos.List(ctx, repository.VideoQuery{Owner: owner.ID, Limit: 1, Page: 2})
	if page.TotalDocs != 2 || len(page.Docs) != 1 || page.TotalPages != 2 || page.HasNextPage || !page.HasPrevPage {
		t.Fatalf("unexpected paging %+v", page)
	}

	page, _ = videos.List(ctx, repository.VideoQuery{Page: 9})
	if len(page.Docs) != 0 || page.TotalDocs != 3 {
		t.Fatalf("expected empty page beyond range, got %+v", page)
	}
}

func TestListHugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := mustUser(t, s.Users(), "owner", "owner@example.com")
	if err := s.Videos().Create(ctx, &entity.Video{Title: "only", Owner: owner.ID, IsPublished: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, p := range []int{math.MaxInt64 / 7, math.MaxInt64} {
		page, err := s.Videos().List(ctx, repository.VideoQuery{Page: p, Limit: 10})
		if err != nil {
			t.Fatalf("list page %d: %v", p, err)
		}
		if len(page.Docs) != 0 || page.TotalDocs != 1 || page.HasNextPage {
			t.Fatalf("expected empty page for %d, got %+v", p, page)
		}
		if page.Page > repository.MaxPage {
			t.Fatalf("page not clamped: %d", page.Page)
		}
	}
}

func TestTogglePublishAndViews(t *testing.T) {
	ctx := context.Background()
	videos := NewStore().Videos()
	v := &entity.Video{Title: "x", IsPublished: true}
	_ = videos.Create(ctx, v)

	got, err := videos.TogglePublish(ctx, v.ID)
	if err != nil || got.IsPublished {
		t.Fatalf("toggle: %v %v", got, err)
	}
	_ = videos.IncrementViews(ctx, v.ID)
	_ = videos.IncrementViews(ctx, v.ID)
	got, _ = videos.GetByID(ctx, v.ID)
	if got.Views != 2 {
		t.Fatalf("expected 2 views, got %d", got.Views)
	}
	if err := videos.IncrementViews(ctx, primitive.NewObjectID()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
