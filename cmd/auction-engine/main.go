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

	"auction-engine/internal/api/handlers"
	"auction-engine/internal/config"
	"auction-engine/internal/domain"
	"auction-engine/internal/infrastructure/leader"
	"auction-engine/internal/infrastructure/mysql"
	redisinfra "auction-engine/internal/infrastructure/redis"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting auction engine service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Redis: event publishing and sweeper leader election.
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

	// MySQL: the authoritative auction store.
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to open MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	store := mysql.NewAuctionStore(db)
	users := mysql.NewUserDirectory(db)
	eventPublisher := redisinfra.NewEventPublisher(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	tiers := make([]services.IncrementTier, 0, len(cfg.Bidding.IncrementTiers))
	for _, tier := range cfg.Bidding.IncrementTiers {
		tiers = append(tiers, services.IncrementTier{
			Threshold: tier.Threshold,
			Increment: tier.Increment,
		})
	}
	increments := services.NewIncrementPolicy(tiers)

	engine := services.NewEngine(
		store,
		users,
		eventPublisher,
		increments,
		domain.SystemClock(),
		services.EngineConfig{
			MaxRetries:          cfg.Bidding.MaxRetries,
			RetryBackoff:        cfg.Bidding.RetryBackoff,
			AllowCancelWithBids: cfg.Bidding.AllowCancelWithBids,
		},
		log,
	)

	sweeper := services.NewSweeper(
		engine,
		store,
		leaderElection,
		domain.SystemClock(),
		cfg.Instance.ID,
		cfg.Sweeper.Interval,
		log,
	)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}))

	auctionHandler := handlers.NewAuctionHandler(engine, log)
	auctionHandler.Register(e.Group("/api/v1"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-engine",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	if err := sweeper.Start(context.Background()); err != nil {
		log.Error("Failed to start sweeper", "error", err)
		os.Exit(1)
	}

	// Keep contending for sweep leadership; only the leader finalizes.
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became sweeper leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction engine service...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop sweeper", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction engine service stopped")
}
