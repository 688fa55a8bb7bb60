package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/sanjayvanan/IntelliBid/internal/config"
	"github.com/sanjayvanan/IntelliBid/internal/infrastructure/redis"
	"github.com/sanjayvanan/IntelliBid/internal/infrastructure/websocket"
	"github.com/sanjayvanan/IntelliBid/internal/services"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

// stream-service fans live price updates out to websocket viewers. It
// holds no auction state of its own: everything arrives over the redis
// price channel published by the auction engine.
func main() {
	log := logger.New()
	log.Info("Starting stream service")

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

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	connManager := websocket.NewConnectionManager(log)
	wsHandler := websocket.NewHandler(connManager, log)

	subscriber := redis.NewEventSubscriber(rdb, log)
	listener := services.NewEventListener(connManager, log)

	listenerCtx, stopListener := context.WithCancel(context.Background())
	go func() {
		if err := listener.Start(listenerCtx, subscriber); err != nil && listenerCtx.Err() == nil {
			log.Error("Event listener stopped", "error", err)
		}
	}()

	// Setup routes
	router := mux.NewRouter()
	router.HandleFunc("/ws/items/{itemID}", wsHandler.HandleConnection)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting stream service server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down stream service...")

	stopListener()
	connManager.CloseAll()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Stream service stopped")
}
