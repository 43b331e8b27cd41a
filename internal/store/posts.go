package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Faqih001/Threads-WebApp/internal/models"
)

// CreatePost persists a new post.
func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	ts := now()
	post.CreatedAt = ts
	post.UpdatedAt = ts
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Replies == nil {
		post.Replies = []models.Reply{}
	}

	res, err := s.db.Collection(collPosts).InsertOne(ctx, post)
	if err != nil {
		return nil, err
	}
	post.ID = res.InsertedID.(primitive.ObjectID)
	return post, nil
}

// GetPostByID retrieves a post by id.
func (s *MongoStore) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post := &models.Post{}
	err := s.db.Collection(collPosts).FindOne(ctx, bson.M{"_id": id}).Decode(post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post.
func (s *MongoStore) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.db.Collection(collPosts).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// AddLike records userID liking the post.
func (s *MongoStore) AddLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	_, err := s.db.Collection(collPosts).UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$addToSet": bson.M{"likes": userID}},
	)
	return err
}

// RemoveLike removes userID's like from the post.
func (s *MongoStore) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	_, err := s.db.Collection(collPosts).UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"likes": userID}},
	)
	return err
}

// AddReply appends a reply to the post.
func (s *MongoStore) AddReply(ctx context.Context, postID primitive.ObjectID, reply models.Reply) error {
	_, err := s.db.Collection(collPosts).UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{
			"$push": bson.M{"replies": reply},
			"$set":  bson.M{"updatedAt": now()},
		},
	)
	return err
}

// ListFeed returns posts by the followed users, newest first.
func (s *MongoStore) ListFeed(ctx context.Context, following []primitive.ObjectID) ([]models.Post, error) {
	if len(following) == 0 {
		return []models.Post{}, nil
	}
	return s.listPosts(ctx, bson.M{"postedBy": bson.M{"$in": following}})
}

// ListByUser returns the user's posts, newest first.
func (s *MongoStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return s.listPosts(ctx, bson.M{"postedBy": userID})
}

func (s *MongoStore) listPosts(ctx context.Context, filter bson.M) ([]models.Post, error) {
	cursor, err := s.db.Collection(collPosts).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateReplyAuthor refreshes the denormalized author fields on every reply
// the user has made, after a profile update.
func (s *MongoStore) UpdateReplyAuthor(ctx context.Context, userID primitive.ObjectID, username, profilePic string) error {
	_, err := s.db.Collection(collPosts).UpdateMany(ctx,
		bson.M{"replies.userId": userID},
		bson.M{"$set": bson.M{
			"replies.$[reply].username":       username,
			"replies.$[reply].userProfilePic": profilePic,
		}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"reply.userId": userID}},
		}),
	)
	return err
}
