package repository

import (
	"context"
	"errors"

	"omiit/metrics"
	"omiit/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore is the owning-user side of the post relation. AppendPost and
// RemovePost are single-document atomic updates.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDWithPosts(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error
	Save(ctx context.Context, user *models.User) error
}

type mongoUserStore struct {
	users *mongo.Collection
	posts *mongo.Collection
}

// NewUserStore returns a UserStore backed by the users collection; posts is
// only read to resolve the user's post references.
func NewUserStore(users, posts *mongo.Collection) UserStore {
	return &mongoUserStore{users: users, posts: posts}
}

func (s *mongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer metrics.TrackQuery("find_one", s.users.Name())()

	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUserStore) FindByIDWithPosts(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer metrics.TrackQuery("aggregate", s.users.Name())()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: s.posts.Name()},
			{Key: "localField", Value: "userPosts"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "posts"},
		}}},
	}

	cursor, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func (s *mongoUserStore) AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	defer metrics.TrackQuery("update_one", s.users.Name())()

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"userPosts": postID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoUserStore) RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	defer metrics.TrackQuery("update_one", s.users.Name())()

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"userPosts": postID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Save replaces the whole user document, inserting it if missing.
func (s *mongoUserStore) Save(ctx context.Context, user *models.User) error {
	defer metrics.TrackQuery("replace_one", s.users.Name())()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.PostIDs == nil {
		user.PostIDs = []primitive.ObjectID{}
	}
	// Posts is a read-side projection and must not be persisted.
	doc := *user
	doc.Posts = nil

	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, doc, options.Replace().SetUpsert(true))
	return err
}
