package application

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	mailtpl "github.com/oksasatya/vidtube-api/pkg/mailer/templates"
)

func register(t *testing.T, f *fixture, username, email, password string) *entity.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		FullName: "Test " + username,
		Password: password,
		Avatar:   upload(t, "avatar.png", "png-bytes"),
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegisterStoresUserWithoutSecrets(t *testing.T) {
	f := newFixture(t)
	avatar := upload(t, "me.PNG", "avatar")
	cover := upload(t, "cover.jpg", "cover")

	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: "JohnDoe", Email: "John@Example.com", FullName: " John Doe ", Password: "secret123",
		Avatar: avatar, CoverImage: cover,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "johndoe" || u.Email != "john@example.com" || u.FullName != "John Doe" {
		t.Fatalf("unexpected normalization: %+v", u)
	}
	if u.Password != "" || u.RefreshToken != "" {
		t.Fatal("secrets must not be returned")
	}
	if u.Avatar == "" || u.CoverImage == "" || f.media.Len() != 2 {
		t.Fatalf("expected avatar and cover uploaded, got %d objects", f.media.Len())
	}
	if _, err := os.Stat(avatar.Path); !os.IsNotExist(err) {
		t.Fatal("temp upload should be removed")
	}

	stored, _ := f.store.Users().GetByID(context.Background(), u.ID)
	if stored.Password == "" || stored.Password == "secret123" {
		t.Fatal("password must be stored hashed")
	}
	if got := f.jobs.templates(); len(got) != 1 || got[0] != mailtpl.Welcome {
		t.Fatalf("expected welcome job, got %v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterInput{Username: "x", Email: "  ", FullName: "x", Password: "p"})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var ae *AppError
	if !errors.As(err, &ae) || len(ae.Details()) != 1 {
		t.Fatalf("expected one field detail, got %v", err)
	}

	_, err = f.users.Register(ctx, RegisterInput{Username: "x", Email: "x@example.com", FullName: "x", Password: "p"})
	if !IsKind(err, KindValidation) || err.Error() != "avatar file is required" {
		t.Fatalf("expected missing avatar, got %v", err)
	}
}

func TestRegisterConflict(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice", "alice@example.com", "secret123")
	before := f.media.Len()

	_, err := f.users.Register(context.Background(), RegisterInput{
		Username: "ALICE", Email: "new@example.com", FullName: "A", Password: "x",
		Avatar: upload(t, "a.png", "a"),
	})
	if !IsKind(err, KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.media.Len() != before {
		t.Fatal("conflicting registration must not leave media behind")
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "bob", "bob@example.com", "secret123")

	if _, _, err := f.users.Login(ctx, LoginInput{Username: "nobody", Password: "x"}); !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := f.users.Login(ctx, LoginInput{Email: "bob@example.com", Password: "wrong"}); !IsKind(err, KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}

	u, pair, err := f.users.Login(ctx, LoginInput{Username: "Bob", Password: "secret123", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Password != "" || pair.AccessToken == "" || pair.RefreshToken == "" || pair.AccessToken == pair.RefreshToken {
		t.Fatalf("unexpected login result %+v %+v", u, pair)
	}

	_, next, err := f.users.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}
	if _, _, err := f.users.Refresh(ctx, pair.RefreshToken); !IsKind(err, KindAuth) {
		t.Fatalf("reusing a rotated token must fail, got %v", err)
	}
	if _, _, err := f.users.Refresh(ctx, next.AccessToken); !IsKind(err, KindAuth) {
		t.Fatalf("access token must not refresh, got %v", err)
	}

	if err := f.users.Logout(ctx, u.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := f.users.Refresh(ctx, next.RefreshToken); !IsKind(err, KindAuth) {
		t.Fatalf("refresh after logout must fail, got %v", err)
	}
	if _, _, err := f.users.Refresh(ctx, ""); !IsKind(err, KindAuth) {
		t.Fatalf("empty token must fail, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "carol", "carol@example.com", "oldpass123")

	if err := f.users.ChangePassword(ctx, u.ID, "wrong", "newpass123"); !IsKind(err, KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if err := f.users.ChangePassword(ctx, u.ID, "oldpass123", "newpass123"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := f.users.Login(ctx, LoginInput{Username: "carol", Password: "oldpass123"}); !IsKind(err, KindAuth) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, _, err := f.users.Login(ctx, LoginInput{Username: "carol", Password: "newpass123"}); err != nil {
		t.Fatalf("new password login: %v", err)
	}
}

func TestUpdateAccountAndAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "dave", "dave@example.com", "secret123")
	register(t, f, "erin", "erin@example.com", "secret123")

	if _, err := f.users.UpdateAccount(ctx, u.ID, "Dave", ""); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	if _, err := f.users.UpdateAccount(ctx, u.ID, "Dave", "erin"); !IsKind(err, KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := f.users.UpdateAccount(ctx, u.ID, "David", "davey")
	if err != nil || got.FullName != "David" || got.Username != "davey" {
		t.Fatalf("update account: %+v %v", got, err)
	}

	oldKey := f.media.KeyFromURL(u.Avatar)
	got, err = f.users.UpdateAvatar(ctx, u.ID, upload(t, "new.png", "new"))
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if got.Avatar == u.Avatar || f.media.Has(oldKey) || !f.media.Has(f.media.KeyFromURL(got.Avatar)) {
		t.Fatal("avatar should be replaced and the old object removed")
	}
	if _, err := f.users.UpdateCoverImage(ctx, u.ID, nil); !IsKind(err, KindValidation) {
		t.Fatalf("expected missing file, got %v", err)
	}

	f.media.FailSave = errors.New("bucket down")
	if _, err := f.users.UpdateCoverImage(ctx, u.ID, upload(t, "c.png", "c")); !IsKind(err, KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestChannelProfileAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := register(t, f, "alice", "alice@example.com", "secret123")
	bob := register(t, f, "bob", "bob@example.com", "secret123")
	if err := f.store.Users().Subscribe(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	p, err := f.users.ChannelProfile(ctx, "Alice", bob.ID)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if p.SubscriberCount != 1 || !p.IsSubscribed || p.SubscribedToCount != 0 {
		t.Fatalf("unexpected profile %+v", p)
	}
	p, _ = f.users.ChannelProfile(ctx, "alice", primitive.NilObjectID)
	if p.IsSubscribed {
		t.Fatal("anonymous viewer cannot be subscribed")
	}
	if _, err := f.users.ChannelProfile(ctx, " ", bob.ID); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	if _, err := f.users.ChannelProfile(ctx, "ghost", bob.ID); !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	hist, err := f.users.WatchHistory(ctx, bob.ID)
	if err != nil || hist == nil || len(hist) != 0 {
		t.Fatalf("expected empty non-nil history, got %v %v", hist, err)
	}
}

func TestSearchDisabledReturnsEmpty(t *testing.T) {
	f := newFixture(t)
	got, err := f.users.SearchChannels(context.Background(), "anything", 10)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v %v", got, err)
	}
}
