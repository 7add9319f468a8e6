package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jewelry-catalog/internal/models"
)

// OutboxRepository registra los borrados externos pendientes
type OutboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(collection *mongo.Collection) *OutboxRepository {
	return &OutboxRepository{collection: collection}
}

// Enqueue registra la intención de borrar ref antes de llamar al host
func (r *OutboxRepository) Enqueue(ctx context.Context, ref, provider string) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	entry := models.MediaDeletion{
		ID:        primitive.NewObjectID(),
		Ref:       ref,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, wrapErr("insert outbox entry", err)
	}
	return entry.ID, nil
}

// Complete elimina la entrada una vez borrado el recurso
func (r *OutboxRepository) Complete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return wrapErr("delete outbox entry", err)
}

// RecordFailure guarda el intento fallido para reintentarlo después
func (r *OutboxRepository) RecordFailure(ctx context.Context, id primitive.ObjectID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_error": reason, "updated_at": time.Now().UTC()},
	})
	return wrapErr("update outbox entry", err)
}

// Pending devuelve las entradas de provider con menos de maxAttempts intentos,
// las menos reintentadas primero
func (r *OutboxRepository) Pending(ctx context.Context, provider string, maxAttempts int, limit int64) ([]models.MediaDeletion, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"provider": provider, "attempts": bson.M{"$lt": maxAttempts}}
	opts := options.Find().
		SetSort(bson.D{{Key: "attempts", Value: 1}, {Key: "updated_at", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr("find outbox entries", err)
	}
	defer cursor.Close(ctx)

	entries := make([]models.MediaDeletion, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, wrapErr("decode outbox entries", err)
	}
	return entries, nil
}
