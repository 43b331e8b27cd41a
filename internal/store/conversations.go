package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Faqih001/Threads-WebApp/internal/models"
)

// FindByParticipants returns the conversation containing both users,
// regardless of argument order.
func (s *MongoStore) FindByParticipants(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := s.db.Collection(collConversations).FindOne(ctx, bson.M{
		"participants": bson.M{"$all": []primitive.ObjectID{a, b}},
	}).Decode(conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return conv, nil
}

// CreateConversation persists a new conversation and returns it with its
// assigned id. The last-message summary starts unseen.
func (s *MongoStore) CreateConversation(ctx context.Context, participants []primitive.ObjectID, last models.LastMessage) (*models.Conversation, error) {
	ts := now()
	conv := &models.Conversation{
		Participants: participants,
		LastMessage:  last,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	res, err := s.db.Collection(collConversations).InsertOne(ctx, conv)
	if err != nil {
		return nil, err
	}
	conv.ID = res.InsertedID.(primitive.ObjectID)
	return conv, nil
}

// UpdateLastMessage overwrites the denormalized summary. The seen flag is
// reset to false along with the new text; marking seen is a separate write.
func (s *MongoStore) UpdateLastMessage(ctx context.Context, id primitive.ObjectID, text string, sender primitive.ObjectID) error {
	_, err := s.db.Collection(collConversations).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"lastMessage": models.LastMessage{Text: text, Sender: sender},
			"updatedAt":   now(),
		}},
	)
	return err
}

// MarkConversationSeen flips the summary's seen flag.
func (s *MongoStore) MarkConversationSeen(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.db.Collection(collConversations).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastMessage.seen": true, "updatedAt": now()}},
	)
	return err
}

// ListConversationsForUser returns every conversation containing the user,
// with the requesting user stripped from each participant list and the
// remaining participants resolved to lightweight profiles.
func (s *MongoStore) ListConversationsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	cursor, err := s.db.Collection(collConversations).Find(ctx, bson.M{"participants": userID})
	if err != nil {
		return nil, err
	}

	var conversations []models.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}

	// Collect the counterpart ids across all conversations, then resolve
	// their profiles in a single query.
	var otherIDs []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)
	for _, conv := range conversations {
		for _, p := range conv.Participants {
			if p != userID && !seen[p] {
				seen[p] = true
				otherIDs = append(otherIDs, p)
			}
		}
	}

	profiles := make(map[primitive.ObjectID]models.Profile, len(otherIDs))
	if len(otherIDs) > 0 {
		userCursor, err := s.db.Collection(collUsers).Find(ctx, bson.M{"_id": bson.M{"$in": otherIDs}})
		if err != nil {
			return nil, err
		}
		var users []models.Profile
		if err := userCursor.All(ctx, &users); err != nil {
			return nil, err
		}
		for _, u := range users {
			profiles[u.ID] = u
		}
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summary := models.ConversationSummary{
			ID:          conv.ID,
			LastMessage: conv.LastMessage,
			CreatedAt:   conv.CreatedAt,
			UpdatedAt:   conv.UpdatedAt,
		}
		for _, p := range conv.Participants {
			if p == userID {
				continue
			}
			if profile, ok := profiles[p]; ok {
				summary.Participants = append(summary.Participants, profile)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
