// Package repository persists posts and their owning users in MongoDB.
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

// ErrNotFound is returned when a document addressed by id does not exist.
var ErrNotFound = errors.New("document not found")

// PostStore defines persistence operations for post documents.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FindAllWithComments(ctx context.Context) ([]models.Post, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, patch models.PostPatch, updatedAt int64) (*models.Post, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

type mongoPostStore struct {
	posts    *mongo.Collection
	comments *mongo.Collection
}

// NewPostStore returns a PostStore backed by the posts collection; comments
// is only read to resolve comment references.
func NewPostStore(posts, comments *mongo.Collection) PostStore {
	return &mongoPostStore{posts: posts, comments: comments}
}

func (s *mongoPostStore) Create(ctx context.Context, post *models.Post) error {
	defer metrics.TrackQuery("insert", s.posts.Name())()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.CommentRefs == nil {
		post.CommentRefs = []primitive.ObjectID{}
	}
	_, err := s.posts.InsertOne(ctx, post)
	return err
}

func (s *mongoPostStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	defer metrics.TrackQuery("find_one", s.posts.Name())()

	var post models.Post
	err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *mongoPostStore) FindAllWithComments(ctx context.Context) ([]models.Post, error) {
	defer metrics.TrackQuery("aggregate", s.posts.Name())()

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: s.comments.Name()},
			{Key: "localField", Value: "postComments"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "comments"},
		}}},
	}

	cursor, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Comments = orderComments(posts[i].CommentRefs, posts[i].Comments)
	}
	return posts, nil
}

// orderComments puts looked-up comments back in reference order; $lookup
// does not preserve it. References without a matching comment are dropped.
func orderComments(refs []primitive.ObjectID, found []models.Comment) []models.Comment {
	byID := make(map[primitive.ObjectID]models.Comment, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	ordered := make([]models.Comment, 0, len(found))
	for _, id := range refs {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

func (s *mongoPostStore) UpdateByID(ctx context.Context, id primitive.ObjectID, patch models.PostPatch, updatedAt int64) (*models.Post, error) {
	defer metrics.TrackQuery("find_one_and_update", s.posts.Name())()

	set := bson.M{"updatedAt": updatedAt}
	for k, v := range patch.Fields() {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err := s.posts.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *mongoPostStore) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	defer metrics.TrackQuery("delete", s.posts.Name())()

	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
