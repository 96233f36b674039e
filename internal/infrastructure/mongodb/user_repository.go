package mongodb

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/domain/repository"
)

// UserRepository stores users and serves the channel aggregations.
type UserRepository struct {
	users *mongo.Collection
	subs  *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users: db.Collection(usersCollection),
		subs:  db.Collection(subscriptionsCollection),
	}
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.ChannelRepository = (*UserRepository)(nil)
)

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.WatchHistory == nil {
		u.WatchHistory = []primitive.ObjectID{}
	}
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.users.InsertOne(ctx, u)
	return translate(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	var u entity.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	or := bson.A{}
	if s := strings.ToLower(strings.TrimSpace(username)); s != "" {
		or = append(or, bson.M{"username": s})
	}
	if s := strings.ToLower(strings.TrimSpace(email)); s != "" {
		or = append(or, bson.M{"email": s})
	}
	if len(or) == 0 {
		return nil, repository.ErrNotFound
	}
	var u entity.User
	if err := r.users.FindOne(ctx, bson.M{"$or": or}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, in repository.UserUpdate) (*entity.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if in.FullName != nil {
		set["fullName"] = strings.TrimSpace(*in.FullName)
	}
	if in.Username != nil {
		set["username"] = strings.ToLower(strings.TrimSpace(*in.Username))
	}
	if in.Avatar != nil {
		set["avatar"] = *in.Avatar
	}
	if in.CoverImage != nil {
		set["coverImage"] = *in.CoverImage
	}
	var u entity.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.M{"$set": bson.M{"refreshToken": token}}
	if token == "" {
		update = bson.M{"$unset": bson.M{"refreshToken": 1}}
	}
	return r.updateOne(ctx, id, update)
}

func (r *UserRepository) PushWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error {
	// $pull and $push cannot target the same field in one update
	if err := r.updateOne(ctx, id, bson.M{"$pull": bson.M{"watchHistory": videoID}}); err != nil {
		return err
	}
	return r.updateOne(ctx, id, bson.M{"$push": bson.M{"watchHistory": bson.M{
		"$each":     bson.A{videoID},
		"$position": 0,
	}}})
}

func (r *UserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*entity.ChannelProfile, error) {
	cur, err := r.users.Aggregate(ctx, channelProfilePipeline(username, viewer))
	if err != nil {
		return nil, err
	}
	var out []entity.ChannelProfile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, repository.ErrNotFound
	}
	return &out[0], nil
}

func (r *UserRepository) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]entity.VideoWithOwner, error) {
	cur, err := r.users.Aggregate(ctx, watchHistoryPipeline(userID))
	if err != nil {
		return nil, err
	}
	out := []entity.VideoWithOwner{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepository) Subscribe(ctx context.Context, subscriber, channel primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := r.subs.UpdateOne(ctx,
		bson.M{"subscriber": subscriber, "channel": channel},
		bson.M{
			"$setOnInsert": bson.M{"createdAt": now},
			"$set":         bson.M{"updatedAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}
