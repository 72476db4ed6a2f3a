package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lenstrack/backend/internal/config"
	"lenstrack/backend/internal/handler"
	"lenstrack/backend/internal/middleware"
	"lenstrack/backend/internal/service"
)

func New(
	cfg config.Config,
	logger *zap.Logger,
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	lensHandler *handler.LensHandler,
	notificationHandler *handler.NotificationHandler,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(cfg.CORSOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	lenses := api.Group("/lenses")
	lenses.Use(middleware.Auth(authService))
	lenses.GET("", lensHandler.List)
	lenses.POST("", lensHandler.Add)
	lenses.PUT("/:id", lensHandler.Edit)
	lenses.DELETE("/:id", lensHandler.Delete)
	lenses.POST("/:id/swap", lensHandler.Swap)
	lenses.POST("/:id/resume", lensHandler.Resume)
	lenses.POST("/current/take-off", lensHandler.TakeOff)
	lenses.POST("/current/discard", lensHandler.Discard)

	notifications := api.Group("/notifications")
	notifications.Use(middleware.Auth(authService))
	notifications.POST("/subscribe", notificationHandler.Subscribe)
	notifications.DELETE("/subscribe", notificationHandler.Unsubscribe)

	return engine
}
