package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faqih001/Threads-WebApp/internal/models"
)

// Lookup methods return (nil, nil) when no document matches; callers decide
// whether absence is an error.

// UserStore defines persistence operations for user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SetFrozen(ctx context.Context, id primitive.ObjectID, frozen bool) error
	Follow(ctx context.Context, target, follower primitive.ObjectID) error
	Unfollow(ctx context.Context, target, follower primitive.ObjectID) error
	SampleUsers(ctx context.Context, exclude primitive.ObjectID, size int) ([]models.User, error)
}

// PostStore defines persistence operations for posts, likes and replies.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) error
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error
	AddReply(ctx context.Context, postID primitive.ObjectID, reply models.Reply) error
	ListFeed(ctx context.Context, following []primitive.ObjectID) ([]models.Post, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	UpdateReplyAuthor(ctx context.Context, userID primitive.ObjectID, username, profilePic string) error
}

// ConversationStore defines persistence operations for conversations.
// Participant lookups are order-independent set matches.
type ConversationStore interface {
	FindByParticipants(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, participants []primitive.ObjectID, last models.LastMessage) (*models.Conversation, error)
	UpdateLastMessage(ctx context.Context, id primitive.ObjectID, text string, sender primitive.ObjectID) error
	MarkConversationSeen(ctx context.Context, id primitive.ObjectID) error
	ListConversationsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error)
}

// MessageStore defines persistence operations for individual messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error)
	MarkMessagesSeen(ctx context.Context, conversationID primitive.ObjectID) (int64, error)
}
