// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/phonespot/backend/internal/cache"
	"github.com/phonespot/backend/internal/config"
	"github.com/phonespot/backend/internal/handlers"
	"github.com/phonespot/backend/internal/middleware"
	"github.com/phonespot/backend/internal/services"
	"github.com/phonespot/backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	catalogCache := cache.NewCatalogCache(time.Duration(cfg.Catalog.CacheTTL) * time.Second)
	notificationService := services.NewNotificationService(cfg)

	authService := services.NewAuthService(db, cfg, notificationService)
	productService := services.NewProductService(db, catalogCache)
	orderService := services.NewOrderService(db, catalogCache, notificationService)
	userService := services.NewUserService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	userHandler := handlers.NewUserHandler(userService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	corsOrigins := []string{cfg.Frontend.BaseURL}
	if cfg.Environment == "development" {
		corsOrigins = []string{"*"}
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.GeneralRateLimit(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))

	// One shared limiter across every credential endpoint.
	authLimit := middleware.AuthRateLimit(cfg.RateLimit.AuthPerMinute)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authLimit, authHandler.Register)
			auth.POST("/login", authLimit, authHandler.Login)
			auth.POST("/verify-email", authLimit, authHandler.VerifyEmail)
			auth.POST("/resend-code", authLimit, authHandler.ResendCode)
			auth.GET("/profile", middleware.AuthRequired(), authHandler.GetProfile)
			auth.PUT("/profile", middleware.AuthRequired(), authHandler.UpdateProfile)
			auth.PUT("/password", middleware.AuthRequired(), authHandler.ChangePassword)
		}

		// Catalog routes; listing and detail are public
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.POST("", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.Create)
			products.PUT("/:id", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.Update)
			products.PATCH("/:id/stock", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.SetStock)
			products.DELETE("/:id", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.Delete)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderHandler.Create)
			orders.GET("/mine", orderHandler.ListMine)
			orders.GET("", middleware.AdminRequired(), orderHandler.ListAll)
			orders.GET("/admin/stats", middleware.AdminRequired(), orderHandler.Statistics)
			orders.GET("/:id", orderHandler.Get)
			orders.PATCH("/:id/status", orderHandler.Transition)
		}

		// User management (back office)
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			users.GET("", userHandler.List)
			users.GET("/stats", userHandler.Statistics)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Deactivate)
		}
	}

	return r
}
