package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"jewelry-catalog/internal/apperr"
	"jewelry-catalog/internal/media"
	"jewelry-catalog/internal/models"
	"jewelry-catalog/internal/response"
	"jewelry-catalog/internal/services"
)

type ProductService interface {
	List(ctx context.Context, q services.ProductQuery) (*models.ProductPage, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, input services.CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, input services.UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	UploadImages(ctx context.Context, files []media.File) ([]models.ProductImage, error)
}

type ProductHandler struct {
	svc    ProductService
	limits UploadLimits
}

func NewProductHandler(svc ProductService, limits UploadLimits) *ProductHandler {
	return &ProductHandler{svc: svc, limits: limits}
}

type productRequest struct {
	Name             *string   `json:"name" form:"name"`
	Price            *float64  `json:"price" form:"price"`
	SKU              *string   `json:"sku" form:"sku"`
	Description      *string   `json:"description" form:"description"`
	ShortDescription *string   `json:"shortDescription" form:"shortDescription"`
	Stock            *int      `json:"stock" form:"stock"`
	Tags             *[]string `json:"tags" form:"tags"`
	CategoryID       *string   `json:"categoryId" form:"categoryId"`
	IsActive         *bool     `json:"isActive" form:"isActive"`
	IsFeatured       *bool     `json:"isFeatured" form:"isFeatured"`
	IsBestSeller     *bool     `json:"isBestSeller" form:"isBestSeller"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ListProducts lista productos con filtros, orden y paginación
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var q services.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, apperr.Validation("invalid query parameters: %s", err.Error()))
		return
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, product)
}

func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, product)
}

// CreateProduct crea un producto; las imágenes llegan en el campo multipart "images"
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := bind(c, h.limits, &req); err != nil {
		writeError(c, err)
		return
	}
	images, err := readFiles(c, "images", h.limits)
	if err != nil {
		writeError(c, err)
		return
	}

	product, err := h.svc.Create(c.Request.Context(), services.CreateProductInput{
		Name:             deref(req.Name),
		Price:            req.Price,
		SKU:              deref(req.SKU),
		Description:      deref(req.Description),
		ShortDescription: deref(req.ShortDescription),
		Stock:            req.Stock,
		Tags:             deref(req.Tags),
		CategoryID:       deref(req.CategoryID),
		IsActive:         req.IsActive,
		IsFeatured:       req.IsFeatured,
		IsBestSeller:     req.IsBestSeller,
		Images:           images,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusCreated, "product created successfully", product)
}

// UpdateProduct aplica cambios parciales; imágenes nuevas reemplazan las anteriores
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := bind(c, h.limits, &req); err != nil {
		writeError(c, err)
		return
	}
	images, err := readFiles(c, "images", h.limits)
	if err != nil {
		writeError(c, err)
		return
	}

	product, err := h.svc.Update(c.Request.Context(), c.Param("id"), services.UpdateProductInput{
		Name:             req.Name,
		Price:            req.Price,
		SKU:              req.SKU,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Stock:            req.Stock,
		Tags:             req.Tags,
		CategoryID:       req.CategoryID,
		IsActive:         req.IsActive,
		IsFeatured:       req.IsFeatured,
		IsBestSeller:     req.IsBestSeller,
		Images:           images,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "product deleted successfully", nil)
}

// UploadImages sube imágenes sueltas (campo multipart "images")
func (h *ProductHandler) UploadImages(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.bodyLimit())
	files, err := readFiles(c, "images", h.limits)
	if err != nil {
		writeError(c, err)
		return
	}

	images, err := h.svc.UploadImages(c.Request.Context(), files)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusCreated, "images uploaded successfully", images)
}
