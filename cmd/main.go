package main

import (
	"shophub/internal/handler"
	"shophub/internal/middleware"
	"shophub/pkg/config"
	"shophub/pkg/database"
	"shophub/pkg/jwtutil"
	"shophub/pkg/logger"
	"shophub/pkg/mailer"
	"shophub/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting storefront service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Wire outbound notifications
	handler.Configure(cfg, mailer.New(cfg, log))
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP not configured, notification emails will be logged only")
	}

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.GET("/verify-email", handler.VerifyEmail)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/reset-password", handler.ResetPassword)

	// Account routes - require a valid session
	account := e.Group("/api/auth")
	account.Use(middleware.AuthMiddleware)
	account.GET("/profile", handler.GetProfile)
	account.PUT("/profile", handler.UpdateProfile)
	account.POST("/change-password", handler.ChangePassword)
	account.GET("/orders", handler.ListMyOrders)
	account.GET("/orders/:id", handler.GetMyOrder)

	// Catalog routes - public
	e.GET("/api/products", handler.ListProducts)
	e.GET("/api/products/:id", handler.GetProduct)
	e.GET("/api/products/:id/reviews", handler.ListReviews)
	e.POST("/api/products/:id/reviews", handler.AddReview)

	// Order routes - guest checkout permitted, a valid token associates
	// the order with the account
	e.POST("/api/orders", handler.PlaceOrder, middleware.OptionalAuthMiddleware)
	e.GET("/api/orders/:id", handler.GetOrder)

	// Contact form
	e.POST("/api/contact", handler.ContactForm)

	// Admin bootstrap - token-guarded, disabled unless configured
	e.POST("/api/admin/bootstrap", handler.BootstrapAdmin)

	// Admin surface - all require the admin role
	admin := e.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware, middleware.RequireAdmin)
	admin.GET("/stats", handler.GetDashboardStats)
	admin.GET("/orders", handler.ListAllOrders)
	admin.GET("/orders/:id", handler.GetOrderDetail)
	admin.PUT("/orders/:id/status", handler.UpdateOrderStatus)
	admin.GET("/users", handler.ListUsers)
	admin.POST("/products", handler.CreateProduct)
	admin.PUT("/products/:id", handler.UpdateProduct)
	admin.DELETE("/products/:id", handler.DeleteProduct)
	admin.POST("/import-products", handler.ImportProducts)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
