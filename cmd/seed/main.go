package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/vidtube-api/config"
	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/domain/repository"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/mongodb"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
)

// seeds two demo channels, a subscription between them, a few videos and one
// comment, like, playlist and tweet.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	client, err := mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() { _ = mongodb.Disconnect(client) }()

	if err := mongodb.RunMigrations(client, cfg.MongoDB, cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	db := client.Database(cfg.MongoDB)
	users := mongodb.NewUserRepository(db)
	videos := mongodb.NewVideoRepository(db)

	password := "password123"
	creator := ensureUser(ctx, users, "democreator", "creator@example.com", "Demo Creator", password)
	viewer := ensureUser(ctx, users, "demoviewer", "viewer@example.com", "Demo Viewer", password)

	if err := users.Subscribe(ctx, viewer.ID, creator.ID); err != nil {
		log.Fatalf("failed to subscribe: %v", err)
	}
	fmt.Printf("subscribed %s -> %s\n", viewer.Username, creator.Username)

	existing, err := videos.List(ctx, repository.VideoQuery{Owner: creator.ID}.Normalize())
	if err != nil {
		log.Fatalf("failed to list videos: %v", err)
	}
	if existing.TotalDocs > 0 {
		fmt.Printf("videos already seeded for %s (%d)\n", creator.Username, existing.TotalDocs)
		return
	}
	var seeded []primitive.ObjectID
	for i, title := range []string{"Getting started with Go", "Testing HTTP handlers", "MongoDB aggregation basics"} {
		v := &entity.Video{
			VideoFile:   fmt.Sprintf("https://example.com/demo/video-%d.mp4", i+1),
			Thumbnail:   fmt.Sprintf("https://example.com/demo/thumb-%d.jpg", i+1),
			Title:       title,
			Description: "Demo video: " + title,
			Duration:    float64(120 * (i + 1)),
			IsPublished: true,
			Owner:       creator.ID,
		}
		if err := videos.Create(ctx, v); err != nil {
			log.Fatalf("failed to seed video %q: %v", title, err)
		}
		fmt.Printf("seeded video: id=%s title=%q\n", v.ID.Hex(), title)
		seeded = append(seeded, v.ID)
	}
	seedSocial(ctx, db, creator.ID, viewer.ID, seeded)
}

func seedSocial(ctx context.Context, db *mongo.Database, creator, viewer primitive.ObjectID, videoIDs []primitive.ObjectID) {
	now := time.Now().UTC()
	comment := entity.Comment{
		ID: primitive.NewObjectID(), Content: "Great walkthrough!",
		VideoID: videoIDs[0], UserID: viewer, CreatedAt: now, UpdatedAt: now,
	}
	tweet := entity.Tweet{
		ID: primitive.NewObjectID(), Content: "New video series is live.",
		CreatedBy: creator, CreatedAt: now, UpdatedAt: now,
	}
	like := entity.Like{
		ID: primitive.NewObjectID(), VideoID: &videoIDs[0], LikedBy: viewer, CreatedAt: now, UpdatedAt: now,
	}
	playlist := entity.Playlist{
		ID: primitive.NewObjectID(), Name: "Go basics", Description: "Start here",
		Videos: videoIDs, CreatedBy: creator, CreatedAt: now, UpdatedAt: now,
	}
	docs := []struct {
		coll string
		doc  any
	}{
		{"comments", comment},
		{"tweets", tweet},
		{"likes", like},
		{"playlists", playlist},
	}
	for _, d := range docs {
		if _, err := db.Collection(d.coll).InsertOne(ctx, d.doc); err != nil {
			log.Fatalf("failed to seed %s: %v", d.coll, err)
		}
		fmt.Printf("seeded %s\n", d.coll)
	}
}

func ensureUser(ctx context.Context, users *mongodb.UserRepository, username, email, fullName, password string) *entity.User {
	u, err := users.FindByUsernameOrEmail(ctx, username, email)
	if err == nil {
		fmt.Printf("user exists: id=%s username=%s\n", u.ID.Hex(), u.Username)
		return u
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("failed to look up %s: %v", username, err)
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	u = &entity.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    email,
		FullName: fullName,
		Avatar:   "https://example.com/demo/" + username + ".png",
		Password: hash,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("failed to seed user %s: %v", username, err)
	}
	fmt.Printf("seeded user: id=%s username=%s email=%s password=%s\n", u.ID.Hex(), username, email, password)
	return u
}
