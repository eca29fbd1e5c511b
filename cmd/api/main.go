package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"store-service/internal/auth"
	"store-service/internal/config"
	"store-service/internal/events"
	"store-service/internal/handlers"
	"store-service/internal/repository"
	"store-service/internal/scheduler"
	"store-service/internal/seed"
	"store-service/internal/service"
	"store-service/pkg/logger"
	"store-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Store Service API
// @version         1.0
// @description     E-commerce demo: product catalog plus an order/payment workflow with time-bounded stock reservations.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("🚀 Starting Store Service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.Duration("order_ttl", cfg.OrderTTL),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize repositories (SQLite, in-memory fallback)
	productRepo, orderRepo, closeDB := buildRepositories(cfg, appLogger)
	defer closeDB()

	// Initialize event publisher
	var publisher events.EventPublisher
	if cfg.UseKafka {
		kafkaPublisher, err := events.NewKafkaEventPublisher(cfg, appLogger)
		if err != nil {
			appLogger.Warn("Failed to initialize Kafka publisher, using in-memory fallback", zap.Error(err))
			publisher = events.NewEventPublisher()
		} else {
			defer kafkaPublisher.Close()
			publisher = kafkaPublisher
		}
	} else {
		publisher = events.NewEventPublisher()
	}

	// Initialize services
	paymentService := service.NewPaymentService(appLogger)
	orderService := service.NewOrderService(productRepo, orderRepo, paymentService, publisher, appLogger, cfg.OrderTTL)
	productService := service.NewProductService(productRepo, orderRepo, appLogger)

	// Seed demo products
	if cfg.SeedPath != "" {
		seed.Products(context.Background(), productService, cfg.SeedPath, appLogger)
	}

	// Start the expiry sweeper
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := scheduler.NewOrderSweeper(orderService, scheduler.NewSweepLock(cfg, appLogger), appLogger, cfg.SweepInterval)
	go sweeper.Run(sweepCtx)

	// Initialize JWT manager and auth handler
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, appLogger)
	authHandler := auth.NewAuthHandler(jwtManager, appLogger)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(appLogger, orderService)
	productHandler := handlers.NewProductHandler(appLogger, productService)

	// Initialize router
	router := gin.New()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(logger.GinMiddleware(appLogger))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
		}

		// Public catalog reads
		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/:id", productHandler.GetProduct)

		// Protected endpoints (require JWT authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, appLogger))
		{
			orders := protected.Group("/orders")
			{
				orders.POST("", orderHandler.CreateOrder)
				orders.GET("", orderHandler.ListOrders)
				orders.GET("/:id", orderHandler.GetOrder)
				orders.POST("/:id/pay", orderHandler.PayOrder)
				orders.DELETE("/:id", orderHandler.CancelOrder)
			}

			// Catalog writes require the admin role
			admin := protected.Group("/products")
			admin.Use(middleware.RequireRole(auth.RoleAdmin, appLogger))
			{
				admin.POST("", productHandler.CreateProduct)
				admin.PUT("/:id", productHandler.UpdateProduct)
				admin.DELETE("/:id", productHandler.DeleteProduct)
			}
		}
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting store service",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// buildRepositories opens the SQLite store, falling back to in-memory
// repositories when the database cannot be opened.
func buildRepositories(cfg *config.Config, appLogger *zap.Logger) (repository.ProductRepository, repository.OrderRepository, func()) {
	sdb, err := repository.NewSQLiteDB(cfg.SQLitePath, appLogger)
	if err != nil {
		appLogger.Warn("Failed to open SQLite database, using in-memory repositories",
			zap.String("path", cfg.SQLitePath),
			zap.Error(err),
		)
		return repository.NewInMemoryProductRepository(), repository.NewInMemoryOrderRepository(), func() {}
	}

	appLogger.Info("✅ SQLite store initialized", zap.String("path", cfg.SQLitePath))
	return repository.NewSQLiteProductRepository(sdb), repository.NewSQLiteOrderRepository(sdb), func() {
		if err := sdb.Close(); err != nil {
			appLogger.Warn("Failed to close database", zap.Error(err))
		}
	}
}

// healthCheck godoc
// @Summary      Health check endpoint
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "store-service",
	})
}
