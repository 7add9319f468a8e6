package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"jewelry-catalog/internal/models"
	"jewelry-catalog/internal/response"
)

type WishlistService interface {
	Get(ctx context.Context, owner string) ([]models.Product, error)
	Add(ctx context.Context, owner, productID string) error
	Remove(ctx context.Context, owner, productID string) error
	Clear(ctx context.Context, owner string) error
}

// WishlistHandler opera sobre la lista del cliente indicado en X-Client-ID
type WishlistHandler struct {
	svc WishlistService
}

func NewWishlistHandler(svc WishlistService) *WishlistHandler {
	return &WishlistHandler{svc: svc}
}

type wishlistRequest struct {
	ProductID string `json:"productId" form:"productId"`
}

func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	products, err := h.svc.Get(c.Request.Context(), c.GetHeader(ClientIDHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, products, len(products))
}

func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.svc.Add(c.Request.Context(), c.GetHeader(ClientIDHeader), req.ProductID); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusCreated, "product added to wishlist", nil)
}

func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.GetHeader(ClientIDHeader), c.Param("productId")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "product removed from wishlist", nil)
}

func (h *WishlistHandler) ClearWishlist(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), c.GetHeader(ClientIDHeader)); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "wishlist cleared", nil)
}
