package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wishlist agrupa los productos guardados por un cliente
type Wishlist struct {
	ID         primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Owner      string               `json:"owner" bson:"owner"`
	ProductIDs []primitive.ObjectID `json:"productIds" bson:"product_ids"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updated_at"`
}

// MediaDeletion es una entrada pendiente del outbox de borrados externos
type MediaDeletion struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Ref       string             `json:"ref" bson:"ref"`
	Provider  string             `json:"provider" bson:"provider"`
	Attempts  int                `json:"attempts" bson:"attempts"`
	LastError string             `json:"lastError,omitempty" bson:"last_error,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}
