package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is an individual message bound to exactly one conversation for its
// lifetime. Only the seen flag is ever updated after creation; messages are
// ordered by CreatedAt for display.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ConversationID primitive.ObjectID `bson:"conversationId" json:"conversationId"`
	Sender         primitive.ObjectID `bson:"sender" json:"sender"`
	Text           string             `bson:"text" json:"text"`
	Seen           bool               `bson:"seen" json:"seen"`
	Img            string             `bson:"img" json:"img"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
