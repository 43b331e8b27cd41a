package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Faqih001/Threads-WebApp/internal/models"
)

// CreateMessage persists a new message and returns it with its assigned id
// and timestamps.
func (s *MongoStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	ts := now()
	msg.CreatedAt = ts
	msg.UpdatedAt = ts

	res, err := s.db.Collection(collMessages).InsertOne(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// ListMessages returns all messages in the conversation, oldest first.
func (s *MongoStore) ListMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	cursor, err := s.db.Collection(collMessages).Find(ctx,
		bson.M{"conversationId": conversationID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkMessagesSeen flips seen on every unseen message in the conversation
// and returns how many were updated. Calling it again is a no-op.
func (s *MongoStore) MarkMessagesSeen(ctx context.Context, conversationID primitive.ObjectID) (int64, error) {
	res, err := s.db.Collection(collMessages).UpdateMany(ctx,
		bson.M{"conversationId": conversationID, "seen": false},
		bson.M{"$set": bson.M{"seen": true, "updatedAt": now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
