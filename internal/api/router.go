// Package api assembles the HTTP surface: middleware chain, routes and docs.
package api

import (
	"fmt"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/social-publisher/config"
	_ "github.com/d60-Lab/social-publisher/docs"
	"github.com/d60-Lab/social-publisher/internal/api/handler"
	"github.com/d60-Lab/social-publisher/internal/api/middleware"
	"github.com/d60-Lab/social-publisher/internal/metrics"
	"github.com/d60-Lab/social-publisher/pkg/response"
)

// NewRouter builds the engine. gatherer backs /metrics and may be nil, in
// which case the default registry is exposed.
func NewRouter(cfg *config.Config, h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) (*gin.Engine, error) {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.MaxMultipartMemory = max(cfg.Server.MaxUploadMB, 1) << 20

	r.Use(middleware.Recovery(), middleware.RequestID())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(
		middleware.AccessLog(),
		middleware.Metrics(m),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
	)

	r.GET("/healthz", func(c *gin.Context) { response.Success(c, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1", middleware.JWT(cfg.Security.JWTSecret))
	{
		posts := v1.Group("/posts")
		posts.POST("", h.CreatePost)
		posts.GET("", h.ListPosts)
		posts.POST("/generate", h.GeneratePost)
		posts.PUT("/:id", h.UpdatePost)
		posts.POST("/:id/publish", h.PublishPost)

		v1.GET("/published", h.ListPublished)

		v1.POST("/pages", h.ConnectPage)
		v1.GET("/pages", h.ListPages)

		c := v1.Group("/content")
		c.POST("/generate", h.GenerateContent)
		c.POST("/news", h.News)
		c.POST("/business", h.AnalyzeBusiness)

		planner := v1.Group("/planner")
		planner.GET("", h.GetPlan)
		planner.POST("", h.AssignPlan)
		planner.PUT("/:day", h.UpdatePlanDay)
		planner.DELETE("/:day", h.DeletePlanDay)
	}
	return r, nil
}
