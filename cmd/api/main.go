package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gonzacha/nordia-pos/internal/cache"
	"github.com/gonzacha/nordia-pos/internal/catalog"
	"github.com/gonzacha/nordia-pos/internal/config"
	"github.com/gonzacha/nordia-pos/internal/events"
	"github.com/gonzacha/nordia-pos/internal/handlers"
	"github.com/gonzacha/nordia-pos/internal/payments"
	"github.com/gonzacha/nordia-pos/internal/repository"
	"github.com/gonzacha/nordia-pos/internal/sales"
	"github.com/gonzacha/nordia-pos/internal/stats"
	"github.com/gonzacha/nordia-pos/internal/telemetry"
	"github.com/gonzacha/nordia-pos/pkg/logger"
	"github.com/gonzacha/nordia-pos/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/gonzacha/nordia-pos/docs" // Import docs for Swagger
)

const version = "1.0.0"

// @title           Nordia POS API
// @version         1.0
// @description     Backend del punto de venta Nordia: catálogo, stock, ventas atómicas, pagos y estadísticas.

// @contact.name   Nordia
// @contact.email  soporte@nordia.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/v1

// @schemes   http https
func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.New(cfg.Environment, cfg.ServiceName)
	defer appLogger.Sync()

	appLogger.Info("🚀 Starting Nordia POS backend",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("strict_totals", cfg.StrictTotals),
	)

	// Prices and totals go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	appLogger.Info("🔧 Opening store...", zap.String("driver", cfg.StoreDriver))
	store, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	appLogger.Info("✅ Store ready")

	productCache := cache.New(cfg, appLogger)
	catalogService := catalog.NewService(store.Inventory(), productCache, cache.TTL(cfg.CacheTTL), appLogger)
	if cfg.SeedCatalog {
		n, err := catalogService.Seed(ctx)
		if err != nil {
			appLogger.Fatal("Failed to seed catalog", zap.Error(err))
		}
		if n > 0 {
			appLogger.Info("🌱 Catalog seeded", zap.Int("products", n))
		}
	}

	eventBus := newEventPublisher(cfg, appLogger)
	engine := sales.NewEngine(store, cfg.StrictTotals, appLogger)
	statsService := stats.NewService(store.Ledger(), time.Local)
	paymentProvider := payments.NewProvider(cfg, appLogger)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// CORS middleware (must be first to handle preflight requests)
	router.Use(middleware.CORSMiddleware())

	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Request ID middleware (must be early in the chain)
	router.Use(middleware.RequestIDMiddleware(appLogger))

	// Idempotency middleware (for write operations)
	requestIDStore := middleware.NewInMemoryRequestIDStore()
	defer requestIDStore.Close()
	idempotencyTTL := time.Duration(cfg.IdempotencyTTL) * time.Second
	router.Use(middleware.IdempotencyMiddleware(requestIDStore, appLogger, idempotencyTTL))

	// Error handler runs inside idempotency so error bodies are never replayed
	router.Use(middleware.ErrorHandler(appLogger))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Initialize handlers
	productHandler := handlers.NewProductHandler(appLogger, catalogService, eventBus)
	saleHandler := handlers.NewSaleHandler(appLogger, engine, store.Ledger(), catalogService, eventBus)
	paymentHandler := handlers.NewPaymentHandler(appLogger, paymentProvider)
	statsHandler := handlers.NewStatsHandler(appLogger, statsService, time.Local)
	healthHandler := handlers.NewHealthHandler(appLogger, store, cfg.ServiceName, cfg.StoreDriver, version)

	router.GET("/", healthHandler.Info)
	router.GET("/health", healthHandler.Health)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.POST("", productHandler.CreateProduct)
			products.GET("/:id", productHandler.GetProduct)
			products.PUT("/:id/stock", productHandler.SetStock)
			products.POST("/:id/adjust", productHandler.AdjustStock)
		}

		salesGroup := v1.Group("/sales")
		{
			salesGroup.POST("", saleHandler.CreateSale)
			salesGroup.GET("", saleHandler.ListSales)
			salesGroup.GET("/:id", saleHandler.GetSale)
		}

		paymentsGroup := v1.Group("/payments")
		{
			paymentsGroup.POST("/process", paymentHandler.ProcessPayment)
			paymentsGroup.POST("/qr", paymentHandler.CreateQR)
		}

		statsGroup := v1.Group("/stats")
		{
			statsGroup.GET("/today", statsHandler.Today)
			statsGroup.GET("/day", statsHandler.Day)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout; in-flight sales finish before the store closes
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Close(); err != nil {
		appLogger.Warn("Failed to close event publisher", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		appLogger.Warn("Failed to close store", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		appLogger.Warn("Failed to flush telemetry", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreSQLite:
		return repository.NewSQLiteStore(cfg.SQLitePath, logger)
	case config.StorePostgres:
		return repository.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// newEventPublisher falls back to the in-memory publisher when Kafka is
// disabled or the producer cannot be created.
func newEventPublisher(cfg *config.Config, logger *zap.Logger) events.EventPublisher {
	if !cfg.UseKafka {
		logger.Info("Kafka disabled, events stay in process")
		return events.NewInMemoryEventPublisher(logger)
	}

	logger.Info("📡 Kafka Configuration",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic_sales", cfg.KafkaTopicSales),
		zap.String("topic_stock", cfg.KafkaTopicStock),
		zap.String("client_id", cfg.KafkaClientID),
		zap.String("acks", cfg.KafkaAcks),
		zap.Int("retries", cfg.KafkaRetries),
	)

	publisher, err := events.NewKafkaEventPublisher(cfg, logger)
	if err != nil {
		logger.Warn("Failed to connect to Kafka, events stay in process", zap.Error(err))
		return events.NewInMemoryEventPublisher(logger)
	}
	return publisher
}
