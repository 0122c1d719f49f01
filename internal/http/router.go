// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"concierge/internal/http/handlers"
	"concierge/internal/http/middleware"
)

func NewRouter(turns handlers.TurnService, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(log), middleware.Logging(log))

	turnHandler := handlers.NewTurnHandler(turns)
	api := r.Group("/api/turns")
	api.POST("/decide", turnHandler.Decide)
	api.POST("/respond", turnHandler.Respond)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}
