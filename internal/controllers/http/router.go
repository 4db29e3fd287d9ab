package http

import (
	"net/http"

	"commerce-service/internal/observability"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Handler     *Handler
	Auth        gin.HandlerFunc
	Logger      *zap.Logger
	ServiceName string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			deps.Logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}),
		otelgin.Middleware(deps.ServiceName),
		observability.RequestID(),
		observability.Logger(deps.Logger),
		observability.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", observability.PrometheusHandler())

	deps.Handler.RegisterRoutes(r, deps.Auth)
	return r
}
