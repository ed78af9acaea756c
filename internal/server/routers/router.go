package routers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iot-aicha/stock-counter/internal/server/handlers/events"
	"github.com/iot-aicha/stock-counter/internal/server/handlers/shelf"
	"github.com/iot-aicha/stock-counter/internal/server/middlewares"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

// SetupRoutes 配置所有路由
func SetupRoutes(
	shelfHandler *shelf.ShelfHandler,
	eventsHandler *events.EventsHandler,
	log logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.ErrorHandler(log))
	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "stock-counter",
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", shelfHandler.Health)
		api.GET("/latest-results", shelfHandler.LatestResults)
		api.GET("/annotated-image", shelfHandler.AnnotatedImage)
		api.GET("/history", shelfHandler.History)
		api.GET("/history/export", shelfHandler.ExportHistory)
		api.POST("/trigger-processing", shelfHandler.TriggerProcessing)
		api.POST("/analyze", shelfHandler.Analyze)

		api.GET("/events", eventsHandler.Stream)
		api.GET("/ws", eventsHandler.WebSocket)
	}

	return r
}
