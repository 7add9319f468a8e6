package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"jewelry-catalog/internal/apperr"
	"jewelry-catalog/internal/models"
)

// ProductLookup es la parte del repositorio de productos que usa la lista de deseos
type ProductLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

type WishlistService struct {
	repo     WishlistRepository
	products ProductLookup
}

func NewWishlistService(repo WishlistRepository, products ProductLookup) *WishlistService {
	return &WishlistService{repo: repo, products: products}
}

// Get devuelve los productos de la lista en el orden en que se agregaron.
// Los productos que ya no existen se omiten.
func (s *WishlistService) Get(ctx context.Context, owner string) ([]models.Product, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	wishlist, err := s.repo.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	found, err := s.products.FindByIDs(ctx, wishlist.ProductIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	products := make([]models.Product, 0, len(found))
	for _, id := range wishlist.ProductIDs {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// Add agrega un producto existente; agregarlo dos veces no lo duplica
func (s *WishlistService) Add(ctx context.Context, owner, productID string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	oid, err := parseID(productID, "product")
	if err != nil {
		return err
	}
	if _, err := s.products.FindByID(ctx, oid); err != nil {
		return notFound(err, "product")
	}
	return s.repo.Add(ctx, owner, oid)
}

func (s *WishlistService) Remove(ctx context.Context, owner, productID string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	oid, err := parseID(productID, "product")
	if err != nil {
		return err
	}
	return s.repo.Remove(ctx, owner, oid)
}

func (s *WishlistService) Clear(ctx context.Context, owner string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, owner)
}

func normalizeOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", apperr.FieldValidation("owner", "client id is required")
	}
	if len(owner) > 128 {
		return "", apperr.FieldValidation("owner", "client id is too long")
	}
	return owner, nil
}
