package mongodb

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/vidtube-api/internal/domain/repository"
)

// uploaderLookup joins the public fields of the user referenced by localField into uploaderDetails.
func uploaderLookup(localField string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "let", Value: bson.D{{Key: "ownerId", Value: "$" + localField}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$_id", "$$ownerId"}}}}}}},
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "username", Value: 1},
					{Key: "fullName", Value: 1},
					{Key: "avatar", Value: 1},
				}}},
			}},
			{Key: "as", Value: "uploaderDetails"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "uploaderDetails", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$uploaderDetails", 0}}}},
		}}},
	}
}

// channelProfilePipeline builds the channel view for username as seen by viewer.
// A zero viewer is never among the subscribers.
func channelProfilePipeline(username string, viewer primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "username", Value: strings.ToLower(strings.TrimSpace(username))}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: subscriptionsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "channel"},
			{Key: "as", Value: "subscribers"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: subscriptionsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "subscriber"},
			{Key: "as", Value: "subscribedTo"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "subscriberCount", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
			{Key: "subscribedToCount", Value: bson.D{{Key: "$size", Value: "$subscribedTo"}}},
			{Key: "isSubscribed", Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{viewer, "$subscribers.subscriber"}}}},
				{Key: "then", Value: true},
				{Key: "else", Value: false},
			}}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "fullName", Value: 1},
			{Key: "username", Value: 1},
			{Key: "email", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "coverImage", Value: 1},
			{Key: "subscriberCount", Value: 1},
			{Key: "subscribedToCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
		}}},
	}
}

// watchHistoryPipeline resolves the stored history ids to videos with uploader summaries,
// keeping the stored order and dropping ids whose video no longer exists.
func watchHistoryPipeline(userID primitive.ObjectID) mongo.Pipeline {
	videoStages := bson.A{}
	for _, st := range uploaderLookup("owner") {
		videoStages = append(videoStages, st)
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		{{Key: "$project", Value: bson.D{{Key: "watchHistory", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$watchHistory", bson.A{}}}}}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: videosCollection},
			{Key: "let", Value: bson.D{{Key: "ids", Value: "$watchHistory"}}},
			{Key: "pipeline", Value: append(bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$in", Value: bson.A{"$_id", "$$ids"}}}}}}},
			}, videoStages...)},
			{Key: "as", Value: "videos"},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "history", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: "$watchHistory"},
				{Key: "as", Value: "id"},
				{Key: "in", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{
					bson.D{{Key: "$filter", Value: bson.D{
						{Key: "input", Value: "$videos"},
						{Key: "as", Value: "v"},
						{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{"$$v._id", "$$id"}}}},
					}}},
					0,
				}}}},
			}}}},
			{Key: "as", Value: "h"},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$h", nil}}}},
		}}}}}}},
		{{Key: "$unwind", Value: "$history"}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$history"}}}},
	}
}

// videoMatch is the filter shared by listing and counting.
func videoMatch(q repository.VideoQuery) bson.D {
	match := bson.D{{Key: "isPublished", Value: true}}
	if !q.Owner.IsZero() {
		match = append(match, bson.E{Key: "owner", Value: q.Owner})
	}
	if s := strings.TrimSpace(q.Query); s != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		match = append(match, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: rx}},
			bson.D{{Key: "description", Value: rx}},
		}})
	}
	return match
}

// videoListPipeline returns one page of published videos plus the total count in a single $facet.
// q must already be normalized.
func videoListPipeline(q repository.VideoQuery) mongo.Pipeline {
	dir := 1
	if q.SortDesc {
		dir = -1
	}
	docs := bson.A{
		bson.D{{Key: "$skip", Value: q.Skip()}},
		bson.D{{Key: "$limit", Value: int64(q.Limit)}},
	}
	for _, st := range uploaderLookup("owner") {
		docs = append(docs, st)
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: videoMatch(q)}},
		{{Key: "$sort", Value: bson.D{{Key: q.SortBy, Value: dir}, {Key: "_id", Value: dir}}}},
		{{Key: "$facet", Value: bson.D{
			{Key: "metadata", Value: bson.A{bson.D{{Key: "$count", Value: "total"}}}},
			{Key: "docs", Value: docs},
		}}},
	}
}

// videoWithOwnerPipeline loads a single video joined with its uploader.
func videoWithOwnerPipeline(id primitive.ObjectID) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
		{{Key: "$limit", Value: 1}},
	}
	return append(p, uploaderLookup("owner")...)
}
