package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category representa una categoría del catálogo, opcionalmente anidada
type Category struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name        string              `json:"name" bson:"name"`
	Slug        string              `json:"slug" bson:"slug"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	Image       *ImageRef           `json:"image,omitempty" bson:"image,omitempty"`
	ParentID    *primitive.ObjectID `json:"parentId" bson:"parent_id"`
	IsActive    bool                `json:"isActive" bson:"is_active"`
	CreatedAt   time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updated_at"`
}

// ImageRef guarda la URL pública y la clave de borrado en el host externo
type ImageRef struct {
	URL string `json:"url" bson:"url"`
	Ref string `json:"ref,omitempty" bson:"ref,omitempty"`
}

// CategoryNode es un nodo del árbol de categorías
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}
