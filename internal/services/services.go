// Package services contiene la lógica de negocio del catálogo: validación,
// slugs, referencias entre documentos y orquestación de imágenes.
package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"jewelry-catalog/internal/apperr"
	"jewelry-catalog/internal/cache"
	"jewelry-catalog/internal/media"
	"jewelry-catalog/internal/models"
	"jewelry-catalog/internal/repository"
)

type CategoryRepository interface {
	FindAll(ctx context.Context, isActive *bool) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	ExistsByName(ctx context.Context, name string, excludeID *primitive.ObjectID) (bool, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID *primitive.ObjectID) (bool, error)
	CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProductRepository interface {
	FindPage(ctx context.Context, f repository.ProductFilter) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID *primitive.ObjectID) (bool, error)
	ExistsBySKU(ctx context.Context, sku string, excludeID *primitive.ObjectID) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ClearCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type WishlistRepository interface {
	Get(ctx context.Context, owner string) (*models.Wishlist, error)
	Add(ctx context.Context, owner string, productID primitive.ObjectID) error
	Remove(ctx context.Context, owner string, productID primitive.ObjectID) error
	Clear(ctx context.Context, owner string) error
	PullProduct(ctx context.Context, productID primitive.ObjectID) error
}

// ImageStore sube imágenes al host externo
type ImageStore interface {
	Upload(ctx context.Context, file media.File, folder string) (*media.UploadResult, error)
	Store(ctx context.Context, file media.File, folder string) (*media.UploadResult, error)
}

// ImageDiscarder borra imágenes externas en modo best-effort
type ImageDiscarder interface {
	Discard(ctx context.Context, refs ...string)
}

const (
	categoryCachePrefix = "categories:"
	productCachePrefix  = "products:"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput traduce los errores de validator a un ValidationError legible
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.FieldValidation(fe.Field(), fmt.Sprintf("%s is required", fe.Field()))
	case "gte":
		return apperr.FieldValidation(fe.Field(), fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param()))
	case "max":
		return apperr.FieldValidation(fe.Field(), fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return apperr.FieldValidation(fe.Field(), fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

// parseID convierte un hex en ObjectID o devuelve "invalid <entity> ID"
func parseID(id, entity string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s ID", entity)
	}
	return oid, nil
}

// notFound traduce repository.ErrNotFound al error de dominio
func notFound(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(entity)
	}
	return err
}

// imageError separa los errores del archivo (400) de los del host (500)
func imageError(err error) error {
	if media.IsClientError(err) || errors.Is(err, media.ErrNotConfigured) {
		return apperr.FieldValidation("image", err.Error())
	}
	return fmt.Errorf("store image: %w", err)
}

// cached lee de la caché o carga y guarda el valor; los fallos de caché solo se registran
func cached[T any](ctx context.Context, store cache.Store, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var value T
	if found, err := store.Get(ctx, key, &value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if found {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := store.Set(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return value, nil
}

func invalidate(ctx context.Context, store cache.Store, prefixes ...string) {
	for _, prefix := range prefixes {
		if err := store.DeleteByPrefix(ctx, prefix); err != nil {
			log.Warn().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
		}
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
