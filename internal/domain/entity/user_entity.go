package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the aggregate root for the account and channel domain.
// Password holds a bcrypt hash; RefreshToken holds the single active refresh token, if any.
// Neither is ever serialized to clients.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	FullName     string               `bson:"fullName" json:"fullName"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	CoverImage   string               `bson:"coverImage,omitempty" json:"coverImage"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory" json:"watchHistory"`
	Password     string               `bson:"password,omitempty" json:"-"`
	RefreshToken string               `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Public returns a copy with the secret fields cleared.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Password = ""
	cp.RefreshToken = ""
	if cp.WatchHistory == nil {
		cp.WatchHistory = []primitive.ObjectID{}
	}
	return &cp
}

// UploaderSummary is the public-safe slice of a user joined onto videos.
type UploaderSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"fullName" json:"fullName"`
	Avatar   string             `bson:"avatar" json:"avatar"`
}

// ChannelProfile is the computed channel view. It is never stored.
type ChannelProfile struct {
	ID                primitive.ObjectID `bson:"_id" json:"_id"`
	FullName          string             `bson:"fullName" json:"fullName"`
	Username          string             `bson:"username" json:"username"`
	Email             string             `bson:"email" json:"email"`
	Avatar            string             `bson:"avatar" json:"avatar"`
	CoverImage        string             `bson:"coverImage" json:"coverImage"`
	SubscriberCount   int                `bson:"subscriberCount" json:"subscriberCount"`
	SubscribedToCount int                `bson:"subscribedToCount" json:"subscribedToCount"`
	IsSubscribed      bool               `bson:"isSubscribed" json:"isSubscribed"`
}
