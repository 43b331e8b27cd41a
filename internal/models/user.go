package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered account.
// Password is the bcrypt hash and is never serialized to JSON.
type User struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name       string               `bson:"name" json:"name"`
	Username   string               `bson:"username" json:"username"`
	Email      string               `bson:"email" json:"email"`
	Password   string               `bson:"password" json:"-"`
	ProfilePic string               `bson:"profilePic" json:"profilePic"`
	Bio        string               `bson:"bio" json:"bio"`
	Followers  []primitive.ObjectID `bson:"followers" json:"followers"`
	Following  []primitive.ObjectID `bson:"following" json:"following"`
	IsFrozen   bool                 `bson:"isFrozen" json:"isFrozen"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Profile is the lightweight projection of a user embedded in conversation
// summaries ("who you're talking to").
type Profile struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Username   string             `bson:"username" json:"username"`
	ProfilePic string             `bson:"profilePic" json:"profilePic"`
}
