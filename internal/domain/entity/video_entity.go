package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is an uploaded video and its metadata. Only Owner may mutate it.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OwnedBy compares ids directly.
func (v *Video) OwnedBy(userID primitive.ObjectID) bool {
	return v != nil && !userID.IsZero() && v.Owner == userID
}

// VideoWithOwner is a video joined with its uploader summary.
type VideoWithOwner struct {
	Video    `bson:",inline"`
	Uploader *UploaderSummary `bson:"uploaderDetails,omitempty" json:"uploaderDetails"`
}
