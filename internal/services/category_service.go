package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"jewelry-catalog/internal/apperr"
	"jewelry-catalog/internal/cache"
	"jewelry-catalog/internal/media"
	"jewelry-catalog/internal/models"
	"jewelry-catalog/internal/repository"
	"jewelry-catalog/internal/slug"
	"jewelry-catalog/internal/tree"
)

const categoryImageFolder = "categories"

// CategoryUnlinker desvincula los productos de una categoría eliminada
type CategoryUnlinker interface {
	ClearCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type CreateCategoryInput struct {
	Name        string      `json:"name" validate:"required,max=120"`
	Description string      `json:"description" validate:"max=2000"`
	ParentID    string      `json:"parentId"`
	IsActive    *bool       `json:"isActive"`
	Image       *media.File `json:"-"`
}

// UpdateCategoryInput solo aplica los campos no nulos.
// ParentID apuntando a "" quita el padre.
type UpdateCategoryInput struct {
	Name        *string     `json:"name" validate:"omitempty,max=120"`
	Description *string     `json:"description" validate:"omitempty,max=2000"`
	ParentID    *string     `json:"parentId"`
	IsActive    *bool       `json:"isActive"`
	Image       *media.File `json:"-"`
	RemoveImage bool        `json:"removeImage"`
}

type CategoryService struct {
	repo     CategoryRepository
	products CategoryUnlinker
	images   ImageStore
	discard  ImageDiscarder
	cache    cache.Store
	ttl      time.Duration
}

func NewCategoryService(repo CategoryRepository, products CategoryUnlinker, images ImageStore, discard ImageDiscarder, store cache.Store, ttl time.Duration) *CategoryService {
	return &CategoryService{
		repo:     repo,
		products: products,
		images:   images,
		discard:  discard,
		cache:    store,
		ttl:      ttl,
	}
}

// List obtiene las categorías ordenadas por nombre, opcionalmente filtradas por estado
func (s *CategoryService) List(ctx context.Context, isActive *bool) ([]models.Category, error) {
	key := categoryCachePrefix + "list:all"
	if isActive != nil {
		if *isActive {
			key = categoryCachePrefix + "list:active"
		} else {
			key = categoryCachePrefix + "list:inactive"
		}
	}
	return cached(ctx, s.cache, key, s.ttl, func() ([]models.Category, error) {
		return s.repo.FindAll(ctx, isActive)
	})
}

// Tree arma el árbol de categorías activas
func (s *CategoryService) Tree(ctx context.Context) ([]*models.CategoryNode, error) {
	return cached(ctx, s.cache, categoryCachePrefix+"tree", s.ttl, func() ([]*models.CategoryNode, error) {
		active := true
		categories, err := s.repo.FindAll(ctx, &active)
		if err != nil {
			return nil, err
		}
		nodes := tree.BuildTree(categories)
		if reachable := tree.Count(nodes); reachable < len(categories) {
			log.Debug().Int("active", len(categories)).Int("reachable", reachable).Msg("category tree omits orphaned categories")
		}
		return nodes, nil
	})
}

func (s *CategoryService) GetByID(ctx context.Context, id string) (*models.Category, error) {
	oid, err := parseID(id, "category")
	if err != nil {
		return nil, err
	}
	category, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return category, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slugValue string) (*models.Category, error) {
	category, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return category, nil
}

// Create crea una categoría y sube su imagen si viene una
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    boolOr(input.IsActive, true),
	}
	if err := s.assignName(ctx, category, input.Name, nil); err != nil {
		return nil, err
	}

	if input.ParentID != "" {
		parentID, err := s.resolveParent(ctx, input.ParentID, nil)
		if err != nil {
			return nil, err
		}
		category.ParentID = parentID
	}

	if input.Image != nil {
		result, err := s.images.Upload(ctx, *input.Image, categoryImageFolder)
		if err != nil {
			return nil, imageError(err)
		}
		category.Image = &models.ImageRef{URL: result.URL, Ref: result.Ref}
	}

	if err := s.repo.Create(ctx, category); err != nil {
		s.discardImage(ctx, category.Image)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Validation("category with this name already exists")
		}
		return nil, err
	}

	invalidate(ctx, s.cache, categoryCachePrefix)
	log.Info().Str("category_id", category.ID.Hex()).Str("slug", category.Slug).Msg("category created")
	return category, nil
}

// Update aplica cambios parciales; el slug se regenera solo si cambia el nombre
func (s *CategoryService) Update(ctx context.Context, id string, input UpdateCategoryInput) (*models.Category, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.FieldValidation("name", "name cannot be empty")
		}
		if err := s.assignName(ctx, category, name, &category.ID); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.ParentID != nil {
		if *input.ParentID == "" {
			category.ParentID = nil
		} else {
			parentID, err := s.resolveParent(ctx, *input.ParentID, &category.ID)
			if err != nil {
				return nil, err
			}
			category.ParentID = parentID
		}
	}

	previous := category.Image
	var uploaded *models.ImageRef
	switch {
	case input.Image != nil:
		result, err := s.images.Upload(ctx, *input.Image, categoryImageFolder)
		if err != nil {
			return nil, imageError(err)
		}
		uploaded = &models.ImageRef{URL: result.URL, Ref: result.Ref}
		category.Image = uploaded
	case input.RemoveImage:
		category.Image = nil
	default:
		previous = nil
	}

	if err := s.repo.Update(ctx, category); err != nil {
		s.discardImage(ctx, uploaded)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Validation("category with this name already exists")
		}
		return nil, notFound(err, "category")
	}
	s.discardImage(ctx, previous)

	invalidate(ctx, s.cache, categoryCachePrefix, productCachePrefix)
	return category, nil
}

// Delete elimina la categoría si no tiene subcategorías
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.repo.CountChildren(ctx, category.ID)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperr.Validation("cannot delete category with subcategories")
	}

	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return notFound(err, "category")
	}

	if n, err := s.products.ClearCategory(ctx, category.ID); err != nil {
		log.Error().Err(err).Str("category_id", category.ID.Hex()).Msg("failed to unlink products from deleted category")
	} else if n > 0 {
		log.Info().Int64("products", n).Str("category_id", category.ID.Hex()).Msg("products unlinked from deleted category")
	}
	s.discardImage(ctx, category.Image)

	invalidate(ctx, s.cache, categoryCachePrefix, productCachePrefix)
	return nil
}

// assignName valida unicidad de nombre y slug y los asigna
func (s *CategoryService) assignName(ctx context.Context, category *models.Category, name string, excludeID *primitive.ObjectID) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Validation("category with this name already exists")
	}

	if excludeID != nil && name == category.Name {
		return nil
	}

	newSlug := slug.Make(name)
	if newSlug == "" {
		return apperr.FieldValidation("name", "name must contain letters or digits")
	}
	exists, err = s.repo.ExistsBySlug(ctx, newSlug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Validation("category with this slug already exists")
	}

	category.Name = name
	category.Slug = newSlug
	return nil
}

// resolveParent valida que el padre exista y que no produzca un ciclo con self
func (s *CategoryService) resolveParent(ctx context.Context, parentHex string, self *primitive.ObjectID) (*primitive.ObjectID, error) {
	parentID, err := primitive.ObjectIDFromHex(parentHex)
	if err != nil {
		return nil, apperr.Validation("invalid parent category ID")
	}
	if self != nil && parentID == *self {
		return nil, apperr.Validation("category cannot be its own parent")
	}

	parent, err := s.repo.FindByID(ctx, parentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Validation("parent category not found")
	}
	if err != nil {
		return nil, err
	}

	if self != nil {
		seen := map[primitive.ObjectID]bool{parent.ID: true}
		for ancestor := parent.ParentID; ancestor != nil; {
			if *ancestor == *self {
				return nil, apperr.Validation("category cannot be moved under its own subcategory")
			}
			if seen[*ancestor] {
				break
			}
			seen[*ancestor] = true
			next, err := s.repo.FindByID(ctx, *ancestor)
			if errors.Is(err, repository.ErrNotFound) {
				break
			}
			if err != nil {
				return nil, err
			}
			ancestor = next.ParentID
		}
	}
	return &parentID, nil
}

func (s *CategoryService) discardImage(ctx context.Context, image *models.ImageRef) {
	if image == nil || image.Ref == "" {
		return
	}
	s.discard.Discard(ctx, image.Ref)
}
