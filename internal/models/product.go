package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product representa una pieza del catálogo
type Product struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name             string              `json:"name" bson:"name"`
	Slug             string              `json:"slug" bson:"slug"`
	Price            float64             `json:"price" bson:"price"`
	SKU              string              `json:"sku" bson:"sku"`
	Description      string              `json:"description,omitempty" bson:"description,omitempty"`
	ShortDescription string              `json:"shortDescription,omitempty" bson:"short_description,omitempty"`
	Stock            int                 `json:"stock" bson:"stock"`
	Tags             []string            `json:"tags" bson:"tags"`
	Images           []ProductImage      `json:"images" bson:"images"`
	CategoryID       *primitive.ObjectID `json:"categoryId" bson:"category_id"`
	IsActive         bool                `json:"isActive" bson:"is_active"`
	IsFeatured       bool                `json:"isFeatured" bson:"is_featured"`
	IsBestSeller     bool                `json:"isBestSeller" bson:"is_best_seller"`
	CreatedAt        time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updated_at"`

	// Category solo se llena en lecturas ($lookup); nunca se persiste.
	Category *CategorySnapshot `json:"category" bson:"category,omitempty"`
}

// ProductImage es una imagen alojada externamente (o inline como data URI)
type ProductImage struct {
	URL       string `json:"url" bson:"url"`
	Ref       string `json:"ref,omitempty" bson:"ref,omitempty"`
	Alt       string `json:"alt" bson:"alt"`
	IsPrimary bool   `json:"isPrimary" bson:"is_primary"`
	Order     int    `json:"order" bson:"order"`
	Width     int    `json:"width,omitempty" bson:"width,omitempty"`
	Height    int    `json:"height,omitempty" bson:"height,omitempty"`
	Format    string `json:"format,omitempty" bson:"format,omitempty"`
}

// CategorySnapshot es la vista reducida de la categoría adjunta a cada producto
type CategorySnapshot struct {
	ID   primitive.ObjectID `json:"id" bson:"_id"`
	Name string             `json:"name" bson:"name"`
	Slug string             `json:"slug" bson:"slug"`
}

// ProductPage es una página de resultados del listado de productos
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	TotalPages int64     `json:"totalPages"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}

// EnsurePrimaryImage reordena las imágenes y deja exactamente una como principal.
// Si ninguna está marcada, se promueve la primera.
func EnsurePrimaryImage(images []ProductImage) []ProductImage {
	primary := -1
	for i := range images {
		images[i].Order = i
		if images[i].IsPrimary && primary == -1 {
			primary = i
		}
		images[i].IsPrimary = false
	}
	if len(images) == 0 {
		return images
	}
	if primary == -1 {
		primary = 0
	}
	images[primary].IsPrimary = true
	return images
}

// ImageRefs devuelve las referencias externas de las imágenes (omite las inline)
func (p *Product) ImageRefs() []string {
	refs := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Ref != "" {
			refs = append(refs, img.Ref)
		}
	}
	return refs
}

// TotalPages calcula el número de páginas para un total y un límite dados
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 1
	}
	tp := total / int64(limit)
	if total%int64(limit) != 0 {
		tp++
	}
	return tp
}
