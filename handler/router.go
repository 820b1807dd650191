package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/pdfchat-be/middleware"
	"github.com/tieubaoca/pdfchat-be/service"
)

type RouterConfig struct {
	JWTSecret string
	Cors      *CorsHandler
	// Limiter throttles chat only; nil disables it.
	Limiter service.RateLimiter
}

func NewRouter(
	cfg RouterConfig,
	messages MessageHandler,
	documents DocumentHandler,
	accounts AccountHandler,
) *gin.Engine {
	router := gin.Default()

	cors := cfg.Cors
	if cors == nil {
		cors = NewCorsHandler(nil)
	}
	router.Use(middleware.RequestID(), cors.CorsMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/messages", messages.HandleMessageInfo)

	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	router.POST("/messages", auth, middleware.RateLimit(cfg.Limiter), messages.HandleSendMessage)
	// The WebSocket service limits per frame.
	router.GET("/ws/messages", auth, messages.HandleWebSocket)

	files := router.Group("/files")
	files.Use(auth)
	{
		files.GET("", documents.HandleList)
		files.GET("/key/:key", documents.HandleGetByKey)
		files.GET("/:id", documents.HandleGet)
		files.PATCH("/:id", documents.HandleUpdate)
		files.DELETE("/:id", documents.HandleDelete)
		files.POST("/:id/views", documents.HandleRecordView)
		files.GET("/:id/status", documents.HandleStatus)
		files.GET("/:id/messages", documents.HandleListMessages)
	}

	router.POST("/auth/callback", auth, accounts.HandleAuthCallback)
	account := router.Group("/account")
	account.Use(auth)
	{
		account.GET("/export", accounts.HandleExport)
		account.DELETE("", accounts.HandleDeleteAccount)
	}

	return router
}
