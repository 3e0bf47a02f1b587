package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storebot/internal/bot"
	"storebot/internal/config"
	"storebot/internal/db"
	httpServer "storebot/internal/http"
	"storebot/internal/http/middleware"
	"storebot/internal/logger"
	"storebot/internal/repository"
	"storebot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	middleware.InitRedisRateLimiter(rdb)

	settings := service.NewSettingsService(repository.NewSettingsRepository(dbPool))
	engine := service.NewEngine(dbPool, settings)

	storeBot, err := bot.New(cfg, engine, rdb)
	if err != nil {
		logger.Fatal("bot init failed", "error", err)
	}
	go storeBot.Start()

	r := gin.Default()
	httpServer.RegisterRoutes(r, dbPool, engine, cfg, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	storeBot.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
