package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-service/internal/audit"
	"catalog-service/internal/catalog"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/ingest"
	"catalog-service/internal/middleware"
	"catalog-service/internal/pricing"
	"catalog-service/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Catalog Service API
// @version 1.0.0
// @description Catalog ingestion and pricing service with multi-tenant support
// @termsOfService http://swagger.io/terms/

// @contact.name Catalog API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8093
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	// Set Redis password from GCP Secret Manager
	redisOpts.Password = secrets.GetRedisPassword()
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db, redisClient)
	pricingRepo := repository.NewPricingRepository(db, redisClient)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	natsURL := os.Getenv("NATS_URL")
	if natsURL != "" {
		var err error
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Wire the domain services
	auditor := audit.NewLogWriter(db)
	engine := pricing.NewEngine(pricingRepo, auditor)
	resolver := catalog.NewResolver(catalogRepo, auditor)
	registrar := catalog.NewRegistrar(catalogRepo, auditor)
	upserter := catalog.NewUpserter(catalogRepo, registrar, engine, auditor)
	pipeline := ingest.NewPipeline(catalogRepo, resolver, upserter)

	// Initialize handlers (events publisher may be nil if NATS not configured)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, resolver, upserter, eventsPublisher)
	pricingHandler := handlers.NewPricingHandler(engine, catalogRepo, eventsPublisher)
	importHandler := handlers.NewImportHandler(pipeline, cfg)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("catalog-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("catalog-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "catalog_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize RBAC middleware
	staffServiceURL := os.Getenv("STAFF_SERVICE_URL")
	if staffServiceURL == "" {
		staffServiceURL = "http://staff-service:8080"
	}
	rbacMw := rbac.NewMiddlewareWithURL(staffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("catalog-service"))
	router.Use(gosharedmw.CompressionMiddleware())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	// Initialize Istio auth middleware for Keycloak JWT validation
	// During migration, AllowLegacyHeaders enables fallback to X-* headers from auth-bff
	istioAuthLogger := logrus.NewEntry(logger).WithField("component", "istio_auth")
	istioAuth := gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        true,
		AllowLegacyHeaders: true, // Allow X-User-ID, X-Tenant-ID during migration
		Logger:             istioAuthLogger,
	})

	// Authentication middleware
	// In development: use DevelopmentAuthMiddleware for local testing
	// In production: use IstioAuth which reads x-jwt-claim-* headers from Istio
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
		api.Use(middleware.TenantMiddleware()) // Still needed in dev mode
	} else {
		api.Use(istioAuth)
		api.Use(middleware.TenantMiddleware())
	}

	v1 := api.Group("")
	{
		catalogGroup := v1.Group("/catalog")
		{
			// Category tree
			catalogGroup.POST("/categories/resolve", rbacMw.RequirePermission(rbac.PermissionCategoriesCreate), catalogHandler.ResolveCategoryPath)
			catalogGroup.GET("/categories", rbacMw.RequirePermission(rbac.PermissionCategoriesRead), catalogHandler.GetCategories)
			catalogGroup.DELETE("/categories/:id", rbacMw.RequirePermission(rbac.PermissionCategoriesDelete), catalogHandler.DeleteCategory)

			// Brands
			catalogGroup.GET("/brands", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetBrands)
			catalogGroup.POST("/brands", rbacMw.RequirePermission(rbac.PermissionProductsCreate), catalogHandler.CreateBrand)
			catalogGroup.DELETE("/brands/:id", rbacMw.RequirePermission(rbac.PermissionProductsDelete), catalogHandler.DeleteBrand)

			// Products and variants
			catalogGroup.GET("/products", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetProducts)
			catalogGroup.POST("/products/upsert", rbacMw.RequirePermission(rbac.PermissionProductsCreate), catalogHandler.UpsertProduct)
			catalogGroup.GET("/products/:id/variants", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetProductVariants)
			catalogGroup.PUT("/products/:id/category", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), catalogHandler.ReassignCategory)
			catalogGroup.POST("/products/:id/clone", rbacMw.RequirePermission(rbac.PermissionProductsCreate), catalogHandler.CloneProduct)
			catalogGroup.PUT("/products/:id/active", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), catalogHandler.SetProductActive)
			catalogGroup.POST("/variants/upsert", rbacMw.RequirePermission(rbac.PermissionProductsCreate), catalogHandler.UpsertVariant)
			catalogGroup.POST("/variants/:id/clone", rbacMw.RequirePermission(rbac.PermissionProductsCreate), catalogHandler.CloneVariant)
			catalogGroup.PUT("/variants/:id/active", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), catalogHandler.SetVariantActive)

			// Feed import
			catalogGroup.GET("/import/template", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.GetImportTemplate)
			catalogGroup.GET("/import/mapping", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.GetImportMapping)
			catalogGroup.PUT("/import/mapping", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.SaveImportMapping)
			catalogGroup.POST("/import", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.ImportFeed)
		}

		pricingGroup := v1.Group("/pricing")
		{
			pricingGroup.PUT("/rules", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), pricingHandler.SetPriceRule)
			pricingGroup.GET("/rules", rbacMw.RequirePermission(rbac.PermissionProductsRead), pricingHandler.GetPriceRules)
			pricingGroup.POST("/rules/revert/preview", rbacMw.RequirePermission(rbac.PermissionProductsRead), pricingHandler.GetRuleRevertPreview)
			pricingGroup.POST("/rules/revert", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), pricingHandler.RevertPriceRule)
			pricingGroup.POST("/adjustments/preview", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), pricingHandler.PreviewAdjustment)
			pricingGroup.POST("/adjustments/confirm", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), pricingHandler.ConfirmAdjustment)
			pricingGroup.POST("/adjustments/revert", rbacMw.RequirePermission(rbac.PermissionProductsUpdate), pricingHandler.RevertAdjustment)
			pricingGroup.GET("/price-logs", rbacMw.RequirePermission(rbac.PermissionProductsRead), pricingHandler.GetPriceChangeLogs)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down catalog-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Catalog service stopped")
}
