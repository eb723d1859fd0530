package repository

import (
	"context"
	"testing"

	"omiit/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserStoreFindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	mt.Run("found", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Ada"},
			{Key: "userPosts", Value: bson.A{postID}},
		}))

		user, err := store.FindByID(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, "Ada", user.Name)
		assert.True(mt, user.HasPost(postID))
	})

	mt.Run("missing", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := store.FindByID(context.Background(), id)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestUserStoreFindByIDWithPosts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	mt.Run("resolves posts", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "userPosts", Value: bson.A{postID}},
			{Key: "posts", Value: bson.A{bson.D{{Key: "_id", Value: postID}, {Key: "postCreator", Value: id}}}},
		}))

		user, err := store.FindByIDWithPosts(context.Background(), id)
		require.NoError(mt, err)
		post, ok := user.FindPost(postID)
		require.True(mt, ok)
		assert.Equal(mt, id, post.CreatorID)
	})

	mt.Run("missing", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := store.FindByIDWithPosts(context.Background(), id)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestUserStorePostReferences(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("append matched", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		assert.NoError(mt, store.AppendPost(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()))
	})

	mt.Run("append unknown user", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := store.AppendPost(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("remove matched", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		assert.NoError(mt, store.RemovePost(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()))
	})

	mt.Run("remove unknown user", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := store.RemovePost(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestUserStoreSave(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts and assigns id", func(mt *mtest.T) {
		store := NewUserStore(mt.Coll, mt.DB.Collection("posts"))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		user := &models.User{Name: "Ada", Posts: []models.Post{{Title: "projection"}}}
		require.NoError(mt, store.Save(context.Background(), user))
		assert.False(mt, user.ID.IsZero())
		assert.NotNil(mt, user.PostIDs)
		assert.Len(mt, user.Posts, 1, "caller's projection is left alone")
	})
}
