package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/contractoros/contractoros-backend/internal/handlers"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	GenerateHandler *handlers.GenerateHandler
	ChatHandler     *handlers.ChatHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Documents
		api.POST("/documents/upload", cfg.DocumentHandler.Upload)
		api.GET("/documents", cfg.DocumentHandler.List)
		api.DELETE("/documents/:filename", cfg.DocumentHandler.Delete)
		api.POST("/documents/search", cfg.DocumentHandler.Search)
		// Generation
		api.POST("/documents/generate-brief", cfg.GenerateHandler.GenerateBrief)
		api.POST("/documents/generate-tasks", cfg.GenerateHandler.GenerateTasks)
		// Chat
		api.POST("/chat", cfg.ChatHandler.SendMessage)
		api.GET("/chat/:conversation_id/messages", cfg.ChatHandler.History)
	}

	return router
}
