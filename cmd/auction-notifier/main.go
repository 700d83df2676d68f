// The notifier consumes engine events from redis pub/sub and pushes them to
// websocket subscribers. It never touches auction state; clients that need
// the authoritative record re-fetch it from the engine API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-engine/internal/config"
	"auction-engine/internal/domain"
	redisinfra "auction-engine/internal/infrastructure/redis"
	ws "auction-engine/internal/infrastructure/websocket"
	"auction-engine/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

func main() {
	log := logger.New()
	log.Info("Starting auction notifier service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

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

	connManager := ws.NewConnectionManager(log)
	wsHandler := ws.NewHandler(connManager, log)
	subscriber := redisinfra.NewEventSubscriber(rdb, log)

	subCtx, stopSub := context.WithCancel(context.Background())
	defer stopSub()

	go func() {
		err := subscriber.SubscribeToAuctionEvents(subCtx, func(event *domain.AuctionEvent) error {
			return connManager.BroadcastToAuction(event.AuctionID, event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event subscription ended", "error", err)
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/ws/auctions/{id}", wsHandler.ServeAuction)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"auction-notifier"}`)
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Notifier.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		log.Info("Starting notifier server", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction notifier service...")

	stopSub()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction notifier service stopped")
}
