// Package server assembles the Gin HTTP server from the configured
// middleware and API handlers.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	ginapi "github.com/wordnest/wordnest-api/api/gin"
	"github.com/wordnest/wordnest-api/config"
	"github.com/wordnest/wordnest-api/log"
)

// NewHTTPServer creates and configures the Gin HTTP server.
func NewHTTPServer(cfg *config.ServerConfig, appLogger log.Logger, authAPI *ginapi.AuthAPI, langAPI *ginapi.LanguageAPI, metricsReg *prometheus.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(appLogger))
	router.Use(otelgin.Middleware(cfg.OtelServiceName))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsReg != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{})))
	}

	authAPI.RegisterRoutes(router)
	langAPI.RegisterRoutes(router)

	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func requestLogger(appLogger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			appLogger.Error(c.Request.Context(), c.Errors.String(), c.Errors.Last().Err, fields)
		} else {
			appLogger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
