package routes

import (
	"github.com/gin-gonic/gin"

	"jewelry-catalog/internal/handlers"
	"jewelry-catalog/internal/middleware"
)

// Handlers agrupa los handlers que expone la API
type Handlers struct {
	Categories *handlers.CategoryHandler
	Products   *handlers.ProductHandler
	Wishlist   *handlers.WishlistHandler
	Health     *handlers.HealthHandler
}

// NewRouter crea el engine con los middlewares comunes y registra las rutas
func NewRouter(h Handlers, maxMultipartMemory int64) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	RegisterRoutes(router, h)
	return router
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	if h.Health != nil {
		router.GET("/health", h.Health.Health)
	}

	v1 := router.Group("/v1")
	{
		categories := v1.Group("/categories")
		categories.GET("", h.Categories.ListCategories)
		categories.GET("/tree", h.Categories.GetCategoryTree)
		categories.GET("/slug/:slug", h.Categories.GetCategoryBySlug)
		categories.GET("/:id", h.Categories.GetCategory)
		categories.POST("", h.Categories.CreateCategory)
		categories.PUT("/:id", h.Categories.UpdateCategory)
		categories.DELETE("/:id", h.Categories.DeleteCategory)

		products := v1.Group("/products")
		products.GET("", h.Products.ListProducts)
		products.GET("/slug/:slug", h.Products.GetProductBySlug)
		products.GET("/:id", h.Products.GetProduct)
		products.POST("", h.Products.CreateProduct)
		products.POST("/upload-images", h.Products.UploadImages)
		products.PUT("/:id", h.Products.UpdateProduct)
		products.DELETE("/:id", h.Products.DeleteProduct)

		wishlist := v1.Group("/wishlist")
		wishlist.GET("", h.Wishlist.GetWishlist)
		wishlist.POST("", h.Wishlist.AddToWishlist)
		wishlist.DELETE("/:productId", h.Wishlist.RemoveFromWishlist)
		wishlist.DELETE("", h.Wishlist.ClearWishlist)
	}
}
