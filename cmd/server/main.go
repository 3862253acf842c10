package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/keramy/formulapmv2-sub007/internal/config"
	"github.com/keramy/formulapmv2-sub007/internal/middleware"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/handler"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting formula-pm service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Client{},
		&entity.Project{},
		&entity.ProjectAssignment{},
		&entity.Vendor{},
		&entity.VendorRating{},
		&entity.PurchaseRequest{},
		&entity.PurchaseOrder{},
		&entity.DeliveryConfirmation{},
		&entity.Notification{},
		&entity.ActivityLog{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = initRedis(cfg.Redis)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, scope cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, cfg, zapLogger)

	if err := services.Storage.EnsureBucket(context.Background()); err != nil {
		zapLogger.Warn("Object storage bucket check failed", zap.Error(err))
	}

	if err := services.Auth.SeedAdmin(context.Background(), cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
		zapLogger.Warn("Admin seeding failed", zap.Error(err))
	}

	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api/v1")

	api.POST("/auth/login", h.Auth.Login)

	authorized := api.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		authorized.GET("/auth/me", h.Auth.Me)

		authorized.GET("/users", h.Auth.ListUsers)
		authorized.POST("/users", h.Auth.CreateUser)

		authorized.GET("/projects", h.Project.ListProjects)
		authorized.POST("/projects", h.Project.CreateProject)
		authorized.GET("/projects/:id", h.Project.GetProject)
		authorized.PUT("/projects/:id", h.Project.UpdateProject)
		authorized.GET("/projects/:id/assignments", h.Project.ListAssignments)
		authorized.POST("/projects/:id/assignments", h.Project.AssignUser)
		authorized.DELETE("/projects/:id/assignments/:userId", h.Project.RemoveUser)

		authorized.GET("/vendors", h.Vendor.ListVendors)
		authorized.POST("/vendors", h.Vendor.CreateVendor)
		authorized.GET("/vendors/:id", h.Vendor.GetVendor)
		authorized.PUT("/vendors/:id", h.Vendor.UpdateVendor)
		authorized.GET("/vendors/:id/ratings", h.Vendor.GetVendorRatings)
		authorized.POST("/vendors/:id/ratings", h.Vendor.SubmitRating)

		authorized.GET("/purchase-requests", h.PR.ListPRs)
		authorized.POST("/purchase-requests", h.PR.CreatePR)
		authorized.GET("/purchase-requests/:id", h.PR.GetPR)
		authorized.POST("/purchase-requests/:id/approve", h.PR.ApprovePR)

		authorized.GET("/purchase-orders", h.PO.ListPOs)
		authorized.POST("/purchase-orders", h.PO.CreatePO)
		authorized.GET("/purchase-orders/export", h.PO.ExportRegister)
		authorized.GET("/purchase-orders/:id", h.PO.GetPO)
		authorized.POST("/purchase-orders/:id/send", h.PO.SendPO)
		authorized.POST("/purchase-orders/:id/confirm", h.PO.ConfirmPO)
		authorized.POST("/purchase-orders/:id/complete", h.PO.CompletePO)
		authorized.POST("/purchase-orders/:id/cancel", h.PO.CancelPO)
		authorized.GET("/purchase-orders/:id/deliveries", h.PO.ListDeliveries)
		authorized.POST("/purchase-orders/:id/deliveries", h.PO.RecordDelivery)
		authorized.GET("/purchase-orders/:id/activity", h.PO.ListActivity)
		authorized.GET("/activities/:entityType/:entityId", h.PO.ListEntityActivity)

		authorized.GET("/notifications", h.Notification.ListNotifications)
		authorized.POST("/notifications/:id/read", h.Notification.MarkRead)

		authorized.GET("/dashboard/summary", h.Dashboard.GetSummary)

		authorized.POST("/uploads/delivery-photos", h.Upload.UploadPhotos)
		authorized.GET("/uploads/delivery-photos/*path", h.Upload.DownloadPhoto)
	}
}
