package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/notabene-app/notabene-backend/internal/handlers"
)

func wireRouter(cfg Config, h Handlers) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(otelgin.Middleware("notabene"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/notes", h.Note.CreateNote)
		api.GET("/notes", h.Note.ListNotes)
		api.GET("/notes/:id", h.Note.GetNote)
		api.DELETE("/notes/:id", h.Note.DeleteNote)

		api.POST("/notes/:id/highlights", h.Highlight.CreateHighlight)
		api.GET("/notes/:id/highlights", h.Highlight.ListHighlights)
		api.DELETE("/highlights/:id", h.Highlight.DeleteHighlight)

		api.POST("/notes/:id/analyze", h.Analysis.EnqueueAnalysis)
		api.GET("/notes/:id/analysis", h.Analysis.GetLatestRun)
		api.GET("/workspaces/:id/usage", h.Analysis.GetUsage)
	}

	return router
}
