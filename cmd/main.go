package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/contractoros/contractoros-backend/internal/db"
	"github.com/contractoros/contractoros-backend/internal/handlers"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/repos"
	"github.com/contractoros/contractoros-backend/internal/server"
	"github.com/contractoros/contractoros-backend/internal/services"
	"github.com/contractoros/contractoros-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	documentChunkRepo := repos.NewDocumentChunkRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	chatMessageRepo := repos.NewChatMessageRepo(thePG, log)
	projectRepo := repos.NewProjectRepo(thePG, log)
	scheduleRepo := repos.NewScheduleRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	embedderProvider := services.NewEmbedderProvider(log)
	modelProvider := services.NewModelProvider(log)
	vectorStore := services.NewPGVectorStore(log, documentChunkRepo, embedderProvider)
	ingestionService := services.NewIngestionService(log, vectorStore, embedderProvider, services.NewPDFPageExtractor(), services.NewChunker())
	generationService := services.NewGenerationService(log, modelProvider, projectRepo, scheduleRepo)
	ragGraph := services.NewRAGGraph(log, modelProvider, vectorStore)
	durableStore := services.NewDurableConversationStore(log, conversationRepo, chatMessageRepo)
	ephemeralStore := services.NewEphemeralConversationStore()
	chatService := services.NewChatService(log, modelProvider, ragGraph, vectorStore, durableStore, ephemeralStore)

	// Handlers
	log.Info("Setting up handlers...")
	documentHandler := handlers.NewDocumentHandler(log, ingestionService, vectorStore)
	generateHandler := handlers.NewGenerateHandler(log, generationService, vectorStore)
	chatHandler := handlers.NewChatHandler(log, chatService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: documentHandler,
		GenerateHandler: generateHandler,
		ChatHandler:     chatHandler,
	})

	port := utils.GetEnv("PORT", "8000", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
