package services

import (
	"context"
	"errors"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
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
)

const (
	defaultPage        = 1
	defaultLimit       = 12
	maxLimit           = 100
	maxSkip            = math.MaxInt32
	productImageFolder = "products"
)

// sortFields traduce los nombres públicos de ordenamiento a campos BSON
var sortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
	"sku":       "sku",
	"slug":      "slug",
}

// ProductQuery son los parámetros del listado tal como llegan por query string
type ProductQuery struct {
	Search       string   `form:"search"`
	CategoryID   string   `form:"categoryId"`
	CategorySlug string   `form:"categorySlug"`
	IsActive     *bool    `form:"isActive"`
	IsFeatured   *bool    `form:"isFeatured"`
	IsBestSeller *bool    `form:"isBestSeller"`
	MinPrice     *float64 `form:"minPrice"`
	MaxPrice     *float64 `form:"maxPrice"`
	SortBy       string   `form:"sortBy"`
	SortOrder    string   `form:"sortOrder"`
	Page         int      `form:"page"`
	Limit        int      `form:"limit"`
}

type CreateProductInput struct {
	Name             string       `json:"name" validate:"required,max=200"`
	Price            *float64     `json:"price" validate:"required,gte=0"`
	SKU              string       `json:"sku" validate:"required,max=64"`
	Description      string       `json:"description" validate:"max=5000"`
	ShortDescription string       `json:"shortDescription" validate:"max=500"`
	Stock            *int         `json:"stock" validate:"omitempty,gte=0"`
	Tags             []string     `json:"tags"`
	CategoryID       string       `json:"categoryId"`
	IsActive         *bool        `json:"isActive"`
	IsFeatured       *bool        `json:"isFeatured"`
	IsBestSeller     *bool        `json:"isBestSeller"`
	Images           []media.File `json:"-"`
}

// UpdateProductInput solo aplica los campos no nulos. Images no vacío
// reemplaza la lista completa de imágenes.
type UpdateProductInput struct {
	Name             *string      `json:"name" validate:"omitempty,max=200"`
	Price            *float64     `json:"price" validate:"omitempty,gte=0"`
	SKU              *string      `json:"sku" validate:"omitempty,max=64"`
	Description      *string      `json:"description" validate:"omitempty,max=5000"`
	ShortDescription *string      `json:"shortDescription" validate:"omitempty,max=500"`
	Stock            *int         `json:"stock" validate:"omitempty,gte=0"`
	Tags             *[]string    `json:"tags"`
	CategoryID       *string      `json:"categoryId"`
	IsActive         *bool        `json:"isActive"`
	IsFeatured       *bool        `json:"isFeatured"`
	IsBestSeller     *bool        `json:"isBestSeller"`
	Images           []media.File `json:"-"`
}

// WishlistCleaner quita un producto eliminado de todas las listas de deseos
type WishlistCleaner interface {
	PullProduct(ctx context.Context, productID primitive.ObjectID) error
}

type ProductService struct {
	repo       ProductRepository
	categories CategoryRepository
	wishlists  WishlistCleaner
	images     ImageStore
	discard    ImageDiscarder
	cache      cache.Store
	ttl        time.Duration
}

func NewProductService(repo ProductRepository, categories CategoryRepository, wishlists WishlistCleaner, images ImageStore, discard ImageDiscarder, store cache.Store, ttl time.Duration) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		wishlists:  wishlists,
		images:     images,
		discard:    discard,
		cache:      store,
		ttl:        ttl,
	}
}

// List obtiene una página de productos con filtros
func (s *ProductService) List(ctx context.Context, q ProductQuery) (*models.ProductPage, error) {
	filter, err := s.buildFilter(q)
	if err != nil {
		return nil, err
	}

	key := cache.QueryKey(productCachePrefix+"list:", listCacheParams(q, filter))
	return cached(ctx, s.cache, key, s.ttl, func() (*models.ProductPage, error) {
		empty := &models.ProductPage{Products: []models.Product{}, Page: filter.Page, Limit: filter.Limit}

		if filter.CategoryID == nil && q.CategorySlug != "" {
			category, err := s.categories.FindBySlug(ctx, q.CategorySlug)
			if errors.Is(err, repository.ErrNotFound) {
				return empty, nil
			}
			if err != nil {
				return nil, err
			}
			filter.CategoryID = &category.ID
		}

		products, total, err := s.repo.FindPage(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &models.ProductPage{
			Products:   products,
			Total:      total,
			TotalPages: models.TotalPages(total, filter.Limit),
			Page:       filter.Page,
			Limit:      filter.Limit,
		}, nil
	})
}

// buildFilter normaliza la query: paginación, orden y referencias
func (s *ProductService) buildFilter(q ProductQuery) (repository.ProductFilter, error) {
	f := repository.ProductFilter{
		Search:       strings.TrimSpace(q.Search),
		IsActive:     q.IsActive,
		IsFeatured:   q.IsFeatured,
		IsBestSeller: q.IsBestSeller,
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		Page:         q.Page,
		Limit:        q.Limit,
	}

	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Page > maxSkip/f.Limit+1 {
		return f, apperr.FieldValidation("page", "page is out of range")
	}

	if q.CategoryID != "" {
		oid, err := parseID(q.CategoryID, "category")
		if err != nil {
			return f, err
		}
		f.CategoryID = &oid
	}

	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, apperr.Validation("minPrice cannot be greater than maxPrice")
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	field, ok := sortFields[sortBy]
	if !ok {
		return f, apperr.FieldValidation("sortBy", "invalid sortBy: "+sortBy)
	}
	f.SortField = field

	switch strings.ToLower(q.SortOrder) {
	case "", "desc":
		f.SortDesc = true
	case "asc":
		f.SortDesc = false
	default:
		return f, apperr.FieldValidation("sortOrder", "sortOrder must be asc or desc")
	}
	return f, nil
}

// listCacheParams arma los parámetros ya normalizados que identifican una página
func listCacheParams(q ProductQuery, f repository.ProductFilter) url.Values {
	params := url.Values{}
	params.Set("search", f.Search)
	params.Set("categorySlug", q.CategorySlug)
	if f.CategoryID != nil {
		params.Set("categoryId", f.CategoryID.Hex())
	}
	setBool := func(name string, v *bool) {
		if v != nil {
			params.Set(name, strconv.FormatBool(*v))
		}
	}
	setBool("isActive", f.IsActive)
	setBool("isFeatured", f.IsFeatured)
	setBool("isBestSeller", f.IsBestSeller)
	if f.MinPrice != nil {
		params.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		params.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	params.Set("sort", f.SortField)
	params.Set("desc", strconv.FormatBool(f.SortDesc))
	params.Set("page", strconv.Itoa(f.Page))
	params.Set("limit", strconv.Itoa(f.Limit))
	return params
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, productCachePrefix+"id:"+oid.Hex(), s.ttl, func() (*models.Product, error) {
		product, err := s.repo.FindByID(ctx, oid)
		if err != nil {
			return nil, notFound(err, "product")
		}
		return product, nil
	})
}

func (s *ProductService) GetBySlug(ctx context.Context, slugValue string) (*models.Product, error) {
	return cached(ctx, s.cache, productCachePrefix+"slug:"+slugValue, s.ttl, func() (*models.Product, error) {
		product, err := s.repo.FindBySlug(ctx, slugValue)
		if err != nil {
			return nil, notFound(err, "product")
		}
		return product, nil
	})
}

// Create crea un producto y guarda sus imágenes (con fallback inline)
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Price:            *input.Price,
		Description:      strings.TrimSpace(input.Description),
		ShortDescription: strings.TrimSpace(input.ShortDescription),
		Tags:             normalizeTags(input.Tags),
		IsActive:         boolOr(input.IsActive, true),
		IsFeatured:       boolOr(input.IsFeatured, false),
		IsBestSeller:     boolOr(input.IsBestSeller, false),
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}

	if err := s.assignName(ctx, product, input.Name, nil); err != nil {
		return nil, err
	}
	if err := s.assignSKU(ctx, product, input.SKU, nil); err != nil {
		return nil, err
	}
	if input.CategoryID != "" {
		if err := s.assignCategory(ctx, product, input.CategoryID); err != nil {
			return nil, err
		}
	}

	images, err := s.storeImages(ctx, input.Images, product.Name)
	if err != nil {
		return nil, err
	}
	product.Images = images

	if err := s.repo.Create(ctx, product); err != nil {
		s.discard.Discard(ctx, product.ImageRefs()...)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Validation("product with this slug or SKU already exists")
		}
		return nil, err
	}

	invalidate(ctx, s.cache, productCachePrefix)
	log.Info().Str("product_id", product.ID.Hex()).Str("sku", product.SKU).Int("images", len(product.Images)).Msg("product created")
	return product, nil
}

// Update aplica cambios parciales. Las imágenes nuevas reemplazan a las anteriores,
// que se descartan después de guardar el documento.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, "product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.FieldValidation("name", "name cannot be empty")
		}
		if name != product.Name {
			if err := s.assignName(ctx, product, name, &product.ID); err != nil {
				return nil, err
			}
		}
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, apperr.FieldValidation("sku", "sku cannot be empty")
		}
		if sku != product.SKU {
			if err := s.assignSKU(ctx, product, sku, &product.ID); err != nil {
				return nil, err
			}
		}
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			product.CategoryID = nil
			product.Category = nil
		} else if err := s.assignCategory(ctx, product, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.ShortDescription != nil {
		product.ShortDescription = strings.TrimSpace(*input.ShortDescription)
	}
	if input.Tags != nil {
		product.Tags = normalizeTags(*input.Tags)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.IsBestSeller != nil {
		product.IsBestSeller = *input.IsBestSeller
	}

	var previousRefs, newRefs []string
	if len(input.Images) > 0 {
		images, err := s.storeImages(ctx, input.Images, product.Name)
		if err != nil {
			return nil, err
		}
		previousRefs = product.ImageRefs()
		product.Images = images
		newRefs = product.ImageRefs()
	}
	product.Images = models.EnsurePrimaryImage(product.Images)

	if err := s.repo.Update(ctx, product); err != nil {
		s.discard.Discard(ctx, newRefs...)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Validation("product with this slug or SKU already exists")
		}
		return nil, notFound(err, "product")
	}
	s.discard.Discard(ctx, previousRefs...)

	invalidate(ctx, s.cache, productCachePrefix)
	return product, nil
}

// Delete elimina el producto, descarta sus imágenes y lo quita de las listas de deseos
func (s *ProductService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "product")
	if err != nil {
		return err
	}
	product, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return notFound(err, "product")
	}

	if err := s.repo.Delete(ctx, oid); err != nil {
		return notFound(err, "product")
	}
	s.discard.Discard(ctx, product.ImageRefs()...)

	if err := s.wishlists.PullProduct(ctx, oid); err != nil {
		log.Error().Err(err).Str("product_id", oid.Hex()).Msg("failed to pull deleted product from wishlists")
	}

	invalidate(ctx, s.cache, productCachePrefix)
	return nil
}

// UploadImages sube varias imágenes sin asociarlas a un producto
func (s *ProductService) UploadImages(ctx context.Context, files []media.File) ([]models.ProductImage, error) {
	if len(files) == 0 {
		return nil, apperr.FieldValidation("images", "no images provided")
	}
	return s.storeImages(ctx, files, "")
}

// storeImages sube las imágenes en orden; si una falla, descarta las ya subidas
func (s *ProductService) storeImages(ctx context.Context, files []media.File, alt string) ([]models.ProductImage, error) {
	images := make([]models.ProductImage, 0, len(files))
	for _, file := range files {
		result, err := s.images.Store(ctx, file, productImageFolder)
		if err != nil {
			refs := make([]string, 0, len(images))
			for _, img := range images {
				if img.Ref != "" {
					refs = append(refs, img.Ref)
				}
			}
			s.discard.Discard(ctx, refs...)
			return nil, imageError(err)
		}
		imageAlt := alt
		if imageAlt == "" {
			imageAlt = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
		}
		images = append(images, models.ProductImage{
			URL:    result.URL,
			Ref:    result.Ref,
			Alt:    imageAlt,
			Width:  result.Width,
			Height: result.Height,
			Format: result.Format,
		})
	}
	return models.EnsurePrimaryImage(images), nil
}

func (s *ProductService) assignName(ctx context.Context, product *models.Product, name string, excludeID *primitive.ObjectID) error {
	newSlug := slug.Make(name)
	if newSlug == "" {
		return apperr.FieldValidation("name", "name must contain letters or digits")
	}
	exists, err := s.repo.ExistsBySlug(ctx, newSlug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Validation("product with this name already exists")
	}
	product.Name = name
	product.Slug = newSlug
	return nil
}

func (s *ProductService) assignSKU(ctx context.Context, product *models.Product, sku string, excludeID *primitive.ObjectID) error {
	exists, err := s.repo.ExistsBySKU(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Validation("product with this SKU already exists")
	}
	product.SKU = sku
	return nil
}

// assignCategory valida la referencia y adjunta la vista de la categoría
func (s *ProductService) assignCategory(ctx context.Context, product *models.Product, categoryHex string) error {
	oid, err := parseID(categoryHex, "category")
	if err != nil {
		return err
	}
	category, err := s.categories.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation("category not found")
	}
	if err != nil {
		return err
	}
	product.CategoryID = &category.ID
	product.Category = &models.CategorySnapshot{ID: category.ID, Name: category.Name, Slug: category.Slug}
	return nil
}

// normalizeTags recorta, descarta vacíos y elimina duplicados conservando el orden
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[strings.ToLower(part)] {
				continue
			}
			seen[strings.ToLower(part)] = true
			out = append(out, part)
		}
	}
	return out
}
