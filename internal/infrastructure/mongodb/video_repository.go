package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/domain/repository"
)

type VideoRepository struct {
	videos *mongo.Collection
}

func NewVideoRepository(db *mongo.Database) *VideoRepository {
	return &VideoRepository{videos: db.Collection(videosCollection)}
}

var _ repository.VideoRepository = (*VideoRepository)(nil)

func (r *VideoRepository) Create(ctx context.Context, v *entity.Video) error {
	now := time.Now().UTC()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	v.CreatedAt, v.UpdatedAt = now, now
	_, err := r.videos.InsertOne(ctx, v)
	return translate(err)
}

func (r *VideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Video, error) {
	var v entity.Video
	if err := r.videos.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *VideoRepository) GetWithOwner(ctx context.Context, id primitive.ObjectID) (*entity.VideoWithOwner, error) {
	cur, err := r.videos.Aggregate(ctx, videoWithOwnerPipeline(id))
	if err != nil {
		return nil, err
	}
	var out []entity.VideoWithOwner
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, repository.ErrNotFound
	}
	return &out[0], nil
}

func (r *VideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.videos.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type videoFacet struct {
	Metadata []struct {
		Total int64 `bson:"total"`
	} `bson:"metadata"`
	Docs []entity.VideoWithOwner `bson:"docs"`
}

func (r *VideoRepository) List(ctx context.Context, q repository.VideoQuery) (*repository.VideoPage, error) {
	q = q.Normalize()
	cur, err := r.videos.Aggregate(ctx, videoListPipeline(q))
	if err != nil {
		return nil, err
	}
	var facets []videoFacet
	if err := cur.All(ctx, &facets); err != nil {
		return nil, err
	}
	var (
		total int64
		docs  []entity.VideoWithOwner
	)
	if len(facets) > 0 {
		if len(facets[0].Metadata) > 0 {
			total = facets[0].Metadata[0].Total
		}
		docs = facets[0].Docs
	}
	return repository.NewVideoPage(docs, total, q.Page, q.Limit), nil
}

func (r *VideoRepository) Update(ctx context.Context, id primitive.ObjectID, in repository.VideoUpdate) (*entity.Video, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Thumbnail != nil {
		set["thumbnail"] = *in.Thumbnail
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *VideoRepository) TogglePublish(ctx context.Context, id primitive.ObjectID) (*entity.Video, error) {
	// update pipeline so the flip happens server side
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "isPublished", Value: bson.D{{Key: "$not", Value: bson.A{"$isPublished"}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *VideoRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update any) (*entity.Video, error) {
	var v entity.Video
	err := r.videos.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&v)
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *VideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.videos.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
