package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a published post with its likes and replies embedded.
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	PostedBy  primitive.ObjectID   `bson:"postedBy" json:"postedBy"`
	Text      string               `bson:"text" json:"text"`
	Img       string               `bson:"img,omitempty" json:"img,omitempty"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Replies   []Reply              `bson:"replies" json:"replies"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Reply is a comment on a post. The author's username and avatar are
// denormalized onto the reply and refreshed when the profile changes.
type Reply struct {
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Text           string             `bson:"text" json:"text"`
	UserProfilePic string             `bson:"userProfilePic,omitempty" json:"userProfilePic,omitempty"`
	Username       string             `bson:"username,omitempty" json:"username,omitempty"`
}
