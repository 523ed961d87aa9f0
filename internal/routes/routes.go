package routes

import (
	"net/http"

	"talkio_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	requireAuth gin.HandlerFunc,
) {
	ginRouter.GET("/healthz", appHandlers.HealthHandler.Health)

	api := ginRouter.Group("/api")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, requireAuth)
		appHandlers.UserHandler.RegisterRoutes(api, requireAuth)
		appHandlers.FriendHandler.RegisterRoutes(api, requireAuth)
		appHandlers.MessageHandler.RegisterRoutes(api, requireAuth)
		appHandlers.PreferenceHandler.RegisterRoutes(api, requireAuth)
		appHandlers.MediaHandler.RegisterRoutes(api, requireAuth)
	}
}

// RegisterMetrics exposes the Prometheus handler on path.
func RegisterMetrics(ginRouter *gin.Engine, path string, h http.Handler) {
	ginRouter.GET(path, gin.WrapH(h))
}
