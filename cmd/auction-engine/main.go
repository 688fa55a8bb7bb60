package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sanjayvanan/IntelliBid/internal/api/handlers"
	"github.com/sanjayvanan/IntelliBid/internal/config"
	"github.com/sanjayvanan/IntelliBid/internal/infrastructure/email"
	"github.com/sanjayvanan/IntelliBid/internal/infrastructure/leader"
	"github.com/sanjayvanan/IntelliBid/internal/infrastructure/mysql"
	"github.com/sanjayvanan/IntelliBid/internal/infrastructure/redis"
	"github.com/sanjayvanan/IntelliBid/internal/services"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting auction engine")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Storage and collaborators
	store := mysql.NewStore(db)
	jobRepo := mysql.NewMySQLJobRepository(db)
	userDir := mysql.NewMySQLUserDirectory(db)
	eventPublisher := redis.NewEventPublisher(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)
	notifier := email.NewSender(cfg.SMTP, userDir, log)

	// Core services
	scheduler := services.NewCronJobScheduler(jobRepo, leaderElection, cfg.Instance.ID,
		cfg.Auction.PollInterval, log)

	resolver := services.NewBidResolver(cfg.Auction.BidIncrement)
	bidService := services.NewBidService(store, resolver, eventPublisher, log)
	itemService := services.NewItemService(store, scheduler, log)

	worker := services.NewLifecycleWorker(store, scheduler, notifier,
		cfg.Auction.PaymentGrace, cfg.Auction.RelistDuration, log)
	worker.RegisterHandlers()

	reconciler := services.NewReconciler(store, scheduler, cfg.Auction.PaymentGrace,
		cfg.Auction.SyncBatchSize, cfg.Auction.SyncBatchPause, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	bidHandler := handlers.NewBidHandler(bidService, log)
	itemHandler := handlers.NewItemHandler(itemService, log)

	api := e.Group("/api/v1")
	api.POST("/items", itemHandler.CreateItem)
	api.GET("/items", itemHandler.ListItems)
	api.GET("/items/won", itemHandler.ListWonItems)
	api.GET("/items/:id", itemHandler.GetItem)
	api.POST("/items/:id/bids", bidHandler.PlaceBid)
	api.GET("/items/:id/bids", bidHandler.ListBids)
	api.POST("/items/:id/payment", itemHandler.ConfirmPayment)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-engine",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Start background services
	if err := scheduler.Start(context.Background()); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Re-derive missing jobs from item rows; the dedup key makes this a
	// no-op for items whose jobs survived the restart.
	go func() {
		if err := reconciler.SyncActiveAuctions(context.Background()); err != nil {
			log.Error("Auction sync failed", "error", err)
		}
	}()

	// Try to become leader
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became auction engine leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Starting auction engine server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction engine...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction engine stopped")
}
