package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "school-inventory/api/swagger" // swagger docs
	"school-inventory/internal/config"
	"school-inventory/internal/database"
	"school-inventory/internal/handler"
	"school-inventory/internal/middleware"
	"school-inventory/internal/repository"
	"school-inventory/internal/service"
	"school-inventory/internal/websocket"
	"school-inventory/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           School Inventory Request API
// @version         1.0
// @description     Item requests for school supplies and their fulfillment against stock.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewConnection(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	zlog.Info("database connected", zap.String("driver", cfg.Database.Driver), zap.String("host", cfg.Database.Host))

	if cfg.Auth.JWTSecret != "" {
		middleware.InitAuth([]byte(cfg.Auth.JWTSecret))
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog.Named("ws"))
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	itemRepo := repository.NewItemRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	directory := service.NewDirectoryService(repository.NewUserRepository(db))
	requestService := service.NewRequestService(
		service.Repositories{
			Tx:        repository.NewTransactionManager(db),
			Items:     itemRepo,
			Requests:  repository.NewRequestRepository(db),
			Movements: movementRepo,
			Audits:    repository.NewAuditRepository(db),
		},
		directory,
		zlog.Named("requests"),
		service.WithPublisher(wsHub),
	)
	stockService := service.NewStockService(itemRepo, movementRepo)

	// Initialize Handlers
	requestHandler := handler.NewRequestHandler(requestService, zlog.Named("http"))
	inventoryHandler := handler.NewInventoryHandler(stockService)
	userHandler := handler.NewUserHandler(directory)

	// Set up Gin Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zlog.Named("http")))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	requestHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
