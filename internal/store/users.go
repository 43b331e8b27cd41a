package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Faqih001/Threads-WebApp/internal/models"
)

// CreateUser persists a new user record.
func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}

	res, err := s.db.Collection(collUsers).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// GetUserByID retrieves a user by id.
func (s *MongoStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

// GetUserByUsername retrieves a user by username.
func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

// FindUserByEmailOrUsername retrieves a user matching either field,
// used to reject duplicate signups.
func (s *MongoStore) FindUserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	user := &models.User{}
	err := s.db.Collection(collUsers).FindOne(ctx, filter).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser overwrites the mutable profile fields of the user.
func (s *MongoStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = now()
	_, err := s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{
			"name":       user.Name,
			"email":      user.Email,
			"username":   user.Username,
			"password":   user.Password,
			"profilePic": user.ProfilePic,
			"bio":        user.Bio,
			"isFrozen":   user.IsFrozen,
			"updatedAt":  user.UpdatedAt,
		}},
	)
	return err
}

// SetFrozen updates the frozen flag on the account.
func (s *MongoStore) SetFrozen(ctx context.Context, id primitive.ObjectID, frozen bool) error {
	_, err := s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isFrozen": frozen, "updatedAt": now()}},
	)
	return err
}

// Follow records follower following target on both sides of the graph.
func (s *MongoStore) Follow(ctx context.Context, target, follower primitive.ObjectID) error {
	users := s.db.Collection(collUsers)
	if _, err := users.UpdateOne(ctx, bson.M{"_id": target},
		bson.M{"$addToSet": bson.M{"followers": follower}}); err != nil {
		return err
	}
	_, err := users.UpdateOne(ctx, bson.M{"_id": follower},
		bson.M{"$addToSet": bson.M{"following": target}})
	return err
}

// Unfollow removes the follow edge on both sides of the graph.
func (s *MongoStore) Unfollow(ctx context.Context, target, follower primitive.ObjectID) error {
	users := s.db.Collection(collUsers)
	if _, err := users.UpdateOne(ctx, bson.M{"_id": target},
		bson.M{"$pull": bson.M{"followers": follower}}); err != nil {
		return err
	}
	_, err := users.UpdateOne(ctx, bson.M{"_id": follower},
		bson.M{"$pull": bson.M{"following": target}})
	return err
}

// SampleUsers returns up to size random users excluding the given id.
// Callers filter out accounts the requester already follows.
func (s *MongoStore) SampleUsers(ctx context.Context, exclude primitive.ObjectID, size int) ([]models.User, error) {
	cursor, err := s.db.Collection(collUsers).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$ne": exclude}}}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	})
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
