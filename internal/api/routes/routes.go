package routes

import (
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/api/handlers"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/api/middleware"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRoutes(
	cfg *config.Config,
	logger *zap.Logger,
	sessionsHandler *handlers.SessionsHandler,
	chatHandler *handlers.ChatHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.LoggingMiddleware(logger))

	// Health check
	r.GET("/health", healthHandler.Check)

	// API routes
	api := r.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		{
			// Session lifecycle
			sessions.GET("", sessionsHandler.List)
			sessions.POST("", sessionsHandler.Create)
			sessions.PUT("/:session_id/name", sessionsHandler.Rename)
			sessions.PUT("/:session_id/model", sessionsHandler.SwitchModel)
			sessions.DELETE("/:session_id", sessionsHandler.Delete)

			// Message history
			sessions.GET("/:session_id/messages", sessionsHandler.GetMessages)

			// Completions
			sessions.POST("/:session_id/completion", chatHandler.Completion)
			sessions.POST("/:session_id/prompt", chatHandler.CompletionWithoutHistory)
			sessions.POST("/:session_id/summarize-name", chatHandler.SummarizeName)
		}
	}

	return r
}
