package ginserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"instrent/internal/infra/config"
	"instrent/internal/infra/obs"
)

type ItemHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Block(c *gin.Context)
	Release(c *gin.Context)
}

type RequestHTTP interface {
	Submit(c *gin.Context)
	Decide(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
	Get(c *gin.Context)
	ListByItem(c *gin.Context)
}

type Handlers struct {
	Items        ItemHTTP
	Availability AvailabilityHTTP
	Requests     RequestHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	configureGinMode(cfg.Env)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Items != nil {
		api.POST("/items", h.Items.Create)
		api.GET("/items/:id", h.Items.Get)
	}
	if h.Availability != nil {
		api.GET("/items/:id/calendar", h.Availability.Calendar)
		api.POST("/items/:id/blocks", h.Availability.Block)
		api.DELETE("/items/:id/blocks/:ref", h.Availability.Release)
	}
	if h.Requests != nil {
		api.POST("/requests", h.Requests.Submit)
		api.POST("/requests/:id/decision", h.Requests.Decide)
		api.POST("/requests/:id/cancel", h.Requests.Cancel)
		api.POST("/requests/:id/completion", h.Requests.Complete)
		api.GET("/requests/:id", h.Requests.Get)
		api.GET("/items/:id/requests", h.Requests.ListByItem)
	}

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func configureGinMode(env string) string {
	mode := gin.ReleaseMode
	if env == "dev" || env == "local" {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)
	return mode
}
