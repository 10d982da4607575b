package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/energyhub/marketplace/controllers"
	"github.com/energyhub/marketplace/database"
	"github.com/energyhub/marketplace/middleware"
	"github.com/energyhub/marketplace/models"
	"github.com/energyhub/marketplace/pkg/logger"
	"github.com/energyhub/marketplace/repository"
	"github.com/energyhub/marketplace/routes"
	"github.com/energyhub/marketplace/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := database.Connect(zlog,
		&models.Order{},
		&models.CancellationRequest{},
		&models.Coupon{},
	); err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	// DI chain
	orderRepo := repository.NewGormOrderRepository(database.DB)
	couponRepo := repository.NewGormCouponRepository(database.DB)
	promoService := services.NewPromoService(couponRepo, zlog)
	orderService := services.NewOrderService(orderRepo, promoService, cfg.TaxRate, zlog)
	assistantService := services.NewAssistantService(
		cfg.AssistantAPIURL,
		cfg.AssistantAPIKey,
		cfg.AssistantModel,
		cfg.AssistantTimeout,
		zlog,
	)

	orderController := controllers.NewOrderController(orderService)
	promoController := controllers.NewPromoController(promoService)
	assistantController := controllers.NewAssistantController(assistantService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zlog))

	// 30-second request timeout
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "energyhub-marketplace"})
	})

	routes.RegisterOrderRoutes(r, orderController)
	routes.RegisterPromoRoutes(r, promoController)
	routes.RegisterAssistantRoutes(r, assistantController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	zlog.Info("Marketplace order service started", zap.String("port", cfg.Port))
	<-quit
	zlog.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited cleanly")
}
