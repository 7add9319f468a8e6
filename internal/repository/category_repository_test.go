package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"jewelry-catalog/internal/models"
)

func TestCategoryRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find all", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.Coll)
		parent := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.categories", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: parent}, {Key: "name", Value: "Rings"}, {Key: "slug", Value: "rings"}, {Key: "parent_id", Value: nil}, {Key: "is_active", Value: true}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Gold Rings"}, {Key: "slug", Value: "gold-rings"}, {Key: "parent_id", Value: parent}, {Key: "is_active", Value: true}},
		))

		active := true
		categories, err := repo.FindAll(ctx, &active)
		require.NoError(mt, err)
		require.Len(mt, categories, 2)
		assert.Nil(mt, categories[0].ParentID)
		require.NotNil(mt, categories[1].ParentID)
		assert.Equal(mt, parent, *categories[1].ParentID)
	})

	mt.Run("find by slug not found", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.categories", mtest.FirstBatch))

		_, err := repo.FindBySlug(ctx, "missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("exists by name", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.categories", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		self := primitive.NewObjectID()
		exists, err := repo.ExistsByName(ctx, "Gold Rings", &self)
		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("count children none", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.categories", mtest.FirstBatch))

		n, err := repo.CountChildren(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})

	mt.Run("create and update", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		c := &models.Category{Name: "Gold Rings", Slug: "gold-rings"}
		require.NoError(mt, repo.Create(ctx, c))
		assert.False(mt, c.ID.IsZero())

		c.Name = "Gold Bands"
		require.NoError(mt, repo.Update(ctx, c))
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewCategoryRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(ctx, primitive.NewObjectID()), ErrNotFound)
	})
}

func TestOutboxRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("enqueue and pending", func(mt *mtest.T) {
		repo := NewOutboxRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := repo.Enqueue(ctx, "jewelry/ring", "cloudinary")
		require.NoError(mt, err)
		assert.False(mt, id.IsZero())

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.media_outbox", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id}, {Key: "ref", Value: "jewelry/ring"}, {Key: "provider", Value: "cloudinary"}, {Key: "attempts", Value: int32(2)}},
		))
		mt.ClearEvents()
		entries, err := repo.Pending(ctx, "cloudinary", 10, 50)
		require.NoError(mt, err)
		require.Len(mt, entries, 1)
		assert.Equal(mt, "jewelry/ring", entries[0].Ref)
		assert.Equal(mt, 2, entries[0].Attempts)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("filter").Document()
		assert.Equal(mt, "cloudinary", filter.Lookup("provider").StringValue())
		assert.EqualValues(mt, 10, filter.Lookup("attempts", "$lt").AsInt64())
		order := started.Command.Lookup("sort").Document()
		assert.Equal(mt, "attempts", order.Index(0).Key())
	})

	mt.Run("record failure and complete", func(mt *mtest.T) {
		repo := NewOutboxRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		id := primitive.NewObjectID()
		require.NoError(mt, repo.RecordFailure(ctx, id, "timeout"))
		require.NoError(mt, repo.Complete(ctx, id))
	})
}

func TestWishlistRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get missing returns empty list", func(mt *mtest.T) {
		repo := NewWishlistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.wishlists", mtest.FirstBatch))

		w, err := repo.Get(ctx, "client-1")
		require.NoError(mt, err)
		assert.Equal(mt, "client-1", w.Owner)
		assert.NotNil(mt, w.ProductIDs)
		assert.Empty(mt, w.ProductIDs)
	})

	mt.Run("get existing", func(mt *mtest.T) {
		repo := NewWishlistRepository(mt.Coll)
		pid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.wishlists", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "owner", Value: "client-1"}, {Key: "product_ids", Value: bson.A{pid}}},
		))

		w, err := repo.Get(ctx, "client-1")
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{pid}, w.ProductIDs)
	})

	mt.Run("add", func(mt *mtest.T) {
		repo := NewWishlistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		require.NoError(mt, repo.Add(ctx, "client-1", primitive.NewObjectID()))
	})
}
