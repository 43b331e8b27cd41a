package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation pairs two users and carries a denormalized summary of the
// most recently sent message. A conversation is unique per unordered
// participant pair and is created lazily on the first message between them.
type Conversation struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Participants []primitive.ObjectID `bson:"participants" json:"-"`
	LastMessage  LastMessage          `bson:"lastMessage" json:"lastMessage"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// LastMessage is the summary embedded in a conversation. Seen flips to true
// when the recipient marks the conversation as seen.
type LastMessage struct {
	Text   string             `bson:"text" json:"text"`
	Sender primitive.ObjectID `bson:"sender" json:"sender"`
	Seen   bool               `bson:"seen" json:"seen"`
}

// ConversationSummary is the API shape for conversation listings: the
// requesting user is stripped and the remaining participants are resolved
// to lightweight profiles.
type ConversationSummary struct {
	ID           primitive.ObjectID `json:"_id"`
	Participants []Profile          `json:"participants"`
	LastMessage  LastMessage        `json:"lastMessage"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
