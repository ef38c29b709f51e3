package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/dinecart/backend/internal/application/cart"
	"github.com/dinecart/backend/internal/domain/shared/valueobject"
	"github.com/dinecart/backend/internal/infrastructure/cache"
	"github.com/dinecart/backend/internal/infrastructure/config"
	"github.com/dinecart/backend/internal/infrastructure/logger"
	"github.com/dinecart/backend/internal/infrastructure/persistence"
	"github.com/dinecart/backend/internal/interfaces/http/handler"
	"github.com/dinecart/backend/internal/interfaces/http/middleware"
	"github.com/dinecart/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting dinecart backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Summary cache: Redis when reachable, in-memory otherwise
	cacheFactory := cache.NewSummaryCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	summaryCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize summary cache", zap.Error(err))
	}

	// Repositories
	cartRepo := persistence.NewGormCartRepository(db.DB)
	taxProfileRepo := persistence.NewGormTaxProfileRepository(db.DB)
	catalogReader := persistence.NewGormCatalogReader(db.DB)
	orderWriter := persistence.NewGormOrderWriter(db.DB)

	// Application services
	taxResolver := appcart.NewTaxConfigResolver(taxProfileRepo, valueobject.Currency(cfg.Cart.DefaultCurrency), log)
	cartService := appcart.NewCartService(cartRepo, catalogReader, taxResolver, summaryCache, cfg.Cart.SummaryCacheTTL, log)
	checkoutService := appcart.NewCheckoutService(cartRepo, orderWriter, taxResolver, summaryCache, log)

	// HTTP engine and middleware
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	middleware.SetupValidator()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORSWithConfig(corsCfg),
		logger.GinMiddleware(log),
		middleware.Identity(middleware.IdentityConfig{
			Secret:              cfg.JWT.Secret,
			Issuer:              cfg.JWT.Issuer,
			AllowHeaderFallback: !cfg.IsProduction(),
		}),
	)

	engine.GET("/health", healthHandler(db))

	// Routes
	r := router.NewRouter(engine)
	r.Register(handler.NewCartHandler(cartService, checkoutService))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromGin(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
