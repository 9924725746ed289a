package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/handlers"
	v1 "github.com/janhq/jan-imagegen/internal/interfaces/httpserver/routes/v1"
)

// Provider holds all route providers.
type Provider struct {
	handlers *handlers.Provider
	V1       *v1.Routes
}

func NewProvider(handlerProvider *handlers.Provider) *Provider {
	return &Provider{
		handlers: handlerProvider,
		V1:       v1.NewRoutes(handlerProvider),
	}
}

// Register registers the page routes and the JSON API.
func (p *Provider) Register(engine *gin.Engine) {
	ui := p.handlers.UI
	engine.GET("/", ui.Index)
	engine.POST("/generate", ui.Generate)
	engine.POST("/clear", ui.Clear)
	engine.POST("/theme", ui.SetTheme)
	engine.POST("/alerts/dismiss", ui.DismissAlerts)

	images := engine.Group("/images/:index")
	images.GET("", ui.Detail)
	images.POST("/delete", ui.Delete)
	images.POST("/copy-prompt", ui.CopyPrompt)
	images.GET("/download", p.handlers.Gallery.Download)

	p.V1.Register(engine)
}
