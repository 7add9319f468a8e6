package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jewelry-catalog/internal/models"
)

type WishlistRepository struct {
	collection *mongo.Collection
}

func NewWishlistRepository(collection *mongo.Collection) *WishlistRepository {
	return &WishlistRepository{collection: collection}
}

// Get devuelve la lista del cliente; si no existe devuelve una vacía
func (r *WishlistRepository) Get(ctx context.Context, owner string) (*models.Wishlist, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var wishlist models.Wishlist
	err := r.collection.FindOne(ctx, bson.M{"owner": owner}).Decode(&wishlist)
	if err = wrapErr("find wishlist", err); errors.Is(err, ErrNotFound) {
		return &models.Wishlist{Owner: owner, ProductIDs: []primitive.ObjectID{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if wishlist.ProductIDs == nil {
		wishlist.ProductIDs = []primitive.ObjectID{}
	}
	return &wishlist, nil
}

// Add agrega un producto (idempotente)
func (r *WishlistRepository) Add(ctx context.Context, owner string, productID primitive.ObjectID) error {
	return r.update(ctx, owner, bson.M{
		"$addToSet": bson.M{"product_ids": productID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}, true)
}

// Remove quita un producto de la lista del cliente
func (r *WishlistRepository) Remove(ctx context.Context, owner string, productID primitive.ObjectID) error {
	return r.update(ctx, owner, bson.M{
		"$pull": bson.M{"product_ids": productID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}, false)
}

// Clear vacía la lista del cliente
func (r *WishlistRepository) Clear(ctx context.Context, owner string) error {
	return r.update(ctx, owner, bson.M{
		"$set": bson.M{"product_ids": bson.A{}, "updated_at": time.Now().UTC()},
	}, false)
}

func (r *WishlistRepository) update(ctx context.Context, owner string, update bson.M, upsert bool) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"owner": owner}, update, options.Update().SetUpsert(upsert))
	return wrapErr("update wishlist", err)
}

// PullProduct quita un producto eliminado de todas las listas
func (r *WishlistRepository) PullProduct(ctx context.Context, productID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := r.collection.UpdateMany(ctx,
		bson.M{"product_ids": productID},
		bson.M{"$pull": bson.M{"product_ids": productID}},
	)
	return wrapErr("pull product from wishlists", err)
}
