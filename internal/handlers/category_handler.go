package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"jewelry-catalog/internal/media"
	"jewelry-catalog/internal/models"
	"jewelry-catalog/internal/response"
	"jewelry-catalog/internal/services"
	"jewelry-catalog/internal/tree"
)

type CategoryService interface {
	List(ctx context.Context, isActive *bool) ([]models.Category, error)
	Tree(ctx context.Context) ([]*models.CategoryNode, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, input services.CreateCategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, input services.UpdateCategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

type CategoryHandler struct {
	svc    CategoryService
	limits UploadLimits
}

func NewCategoryHandler(svc CategoryService, limits UploadLimits) *CategoryHandler {
	return &CategoryHandler{svc: svc, limits: limits}
}

type categoryRequest struct {
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
	ParentID    *string `json:"parentId" form:"parentId"`
	IsActive    *bool   `json:"isActive" form:"isActive"`
	RemoveImage bool    `json:"removeImage" form:"removeImage"`
}

// image devuelve la imagen del campo "image", si viene
func (h *CategoryHandler) image(c *gin.Context) (*media.File, error) {
	files, err := readFiles(c, "image", h.limits)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

// ListCategories lista categorías, opcionalmente filtradas por ?isActive=
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	isActive, err := queryBool(c, "isActive")
	if err != nil {
		writeError(c, err)
		return
	}

	categories, err := h.svc.List(c.Request.Context(), isActive)
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, categories, len(categories))
}

// GetCategoryTree devuelve las categorías activas anidadas
func (h *CategoryHandler) GetCategoryTree(c *gin.Context) {
	nodes, err := h.svc.Tree(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, nodes, tree.Count(nodes))
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, category)
}

func (h *CategoryHandler) GetCategoryBySlug(c *gin.Context) {
	category, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, category)
}

// CreateCategory crea una categoría (JSON o multipart con imagen opcional)
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := bind(c, h.limits, &req); err != nil {
		writeError(c, err)
		return
	}
	image, err := h.image(c)
	if err != nil {
		writeError(c, err)
		return
	}

	input := services.CreateCategoryInput{IsActive: req.IsActive, Image: image}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.ParentID != nil {
		input.ParentID = *req.ParentID
	}

	category, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusCreated, "category created successfully", category)
}

// UpdateCategory aplica cambios parciales
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := bind(c, h.limits, &req); err != nil {
		writeError(c, err)
		return
	}
	image, err := h.image(c)
	if err != nil {
		writeError(c, err)
		return
	}

	category, err := h.svc.Update(c.Request.Context(), c.Param("id"), services.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
		Image:       image,
		RemoveImage: req.RemoveImage,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "category updated successfully", category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "category deleted successfully", nil)
}
