package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/infra/config"
	"tinyhouse/internal/infra/obs"
)

type AuthHTTP interface {
	URL(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
}

type UserHTTP interface {
	Get(c *gin.Context)
}

type ListingHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Host(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
}

type WalletHTTP interface {
	Connect(c *gin.Context)
	Disconnect(c *gin.Context)
}

type Handlers struct {
	Auth    AuthHTTP
	User    UserHTTP
	Listing ListingHTTP
	Booking BookingHTTP
	Wallet  WalletHTTP
	Viewer  gin.HandlerFunc
	Metrics http.Handler
}

// NewRouter builds the gin engine with the API and operational routes.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(obsMW.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.PublicURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", CSRFHeader, "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Viewer != nil {
		api.Use(h.Viewer)
	}
	if h.Auth != nil {
		api.GET("/auth/url", h.Auth.URL)
		api.POST("/auth/login", RateLimit(cfg.LoginRatePerMin, cfg.LoginBurst), h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
	}
	if h.User != nil {
		api.GET("/users/:id", h.User.Get)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Search)
		api.GET("/listings/:id", h.Listing.Get)
		api.POST("/listings", h.Listing.Host)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
	}
	if h.Wallet != nil {
		api.POST("/wallet/connect", h.Wallet.Connect)
		api.POST("/wallet/disconnect", h.Wallet.Disconnect)
	}
	return router
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
