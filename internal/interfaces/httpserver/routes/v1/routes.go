package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/handlers"
)

// Routes holds the v1 route configuration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(handlerProvider *handlers.Provider) *Routes {
	return &Routes{handlers: handlerProvider}
}

// Register mounts the JSON API under /api/v1.
func (r *Routes) Register(engine *gin.Engine) {
	api := engine.Group("/api/v1")

	RegisterImageRoutes(api, r.handlers.Gallery)
	RegisterGenerationRoutes(api, r.handlers.Generation)

	api.GET("/jobs", r.handlers.Jobs.Get)
	api.GET("/theme", r.handlers.Theme.Get)
	api.PUT("/theme", r.handlers.Theme.Put)
}

func RegisterImageRoutes(router gin.IRouter, h *handlers.GalleryHandler) {
	images := router.Group("/images")
	images.GET("", h.List)
	images.DELETE("", h.Clear)
	images.GET("/:index", h.Get)
	images.DELETE("/:index", h.Remove)
	images.GET("/:index/download", h.Download)
}

func RegisterGenerationRoutes(router gin.IRouter, h *handlers.GenerationHandler) {
	generations := router.Group("/generations")
	generations.POST("", h.Create)
	generations.GET("", h.List)
}
