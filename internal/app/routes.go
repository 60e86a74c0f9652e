package app

import (
	"net/http"

	"bookshelf/internal/auth"
	"bookshelf/internal/handlers"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, a *App) {
	r.GET("/", rootHandler(a))
	r.GET("/health", healthHandler(a))
	r.GET("/version", versionHandler(a))
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")
	protected := api.Group("", auth.RequireToken(a.cfg.Auth.TokenHash))

	bookHandler := handlers.NewBookHandler(a.Books, a.Controller)
	registerBookRoutes(api, protected, bookHandler)

	dialogHandler := handlers.NewDialogHandler(a.Controller)
	registerDialogRoutes(api, protected, dialogHandler)

	shelfHandler := handlers.NewShelfHandler(a.Shelves, a.Notices)
	api.GET("/shelves", shelfHandler.Shelves)
	api.GET("/notices", shelfHandler.Notices)
}

func rootHandler(a *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Bookshelf API",
			"version": a.cfg.App.Version,
			"env":     a.cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"metrics": "/metrics",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(a *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":          true,
			"env":         a.cfg.App.Env,
			"storage":     a.cfg.Storage.Driver,
			"memory_only": a.Books.MemoryOnly(),
			"books":       a.Books.Len(),
		})
	}
}

func versionHandler(a *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": a.cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerBookRoutes(api, protected *gin.RouterGroup, h *handlers.BookHandler) {
	api.GET("/books", h.List)
	api.GET("/books/:id", h.GetByID)
	protected.POST("/books", h.Create)
	protected.PATCH("/books/:id", h.Update)
	protected.DELETE("/books/:id", h.Delete)
	protected.POST("/books/:id/toggle", h.Toggle)
	protected.POST("/books/:id/edit", h.Edit)
}

func registerDialogRoutes(api, protected *gin.RouterGroup, h *handlers.DialogHandler) {
	api.GET("/dialogs/:token", h.Get)
	protected.POST("/dialogs/:token", h.Respond)
	protected.DELETE("/dialogs/:token", h.Cancel)
}
