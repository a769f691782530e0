package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/bank-api/shared/middleware"
)

// NewRouter mounts the user and account routes plus GET /health behind panic
// recovery and request logging.
func NewRouter(log *slog.Logger, users *UserHandler, accounts *AccountHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log))

	users.RegisterRoutes(router)
	accounts.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}
