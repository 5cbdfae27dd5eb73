package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"grouplink-go/internal/cache/cacher"
	"grouplink-go/internal/cache/inmemory"
	rediscache "grouplink-go/internal/cache/redis"
	"grouplink-go/internal/config"
	"grouplink-go/internal/handler"
	"grouplink-go/internal/i18n"
	"grouplink-go/internal/repository"
	"grouplink-go/internal/service"
	"grouplink-go/pkg/logging"
)

func initConfig() *config.Settings {
	// .env 可选，存在时先注入环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	wd, _ := os.Getwd()
	log.Printf("Loading config from: %s/config.yaml", wd)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Failed to read config file: %v", err)
		}
		log.Printf("config.yaml not found, using defaults and environment")
	}

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	return settings
}

func initCache(settings *config.Settings) cacher.Engine {
	if repository.InitRedis(settings.Redis, logging.Logger) {
		logging.Logger.Info("Using redis cache", zap.String("addr", settings.Redis.Addr))
		return rediscache.New(repository.RedisPool)
	}
	logging.Logger.Info("redis.addr not set, using in-memory cache")
	return inmemory.New(settings.Cache.MissTTL, 10*time.Minute)
}

func startServer(r *gin.Engine, settings *config.Settings, scheduler *cron.Cron) {
	srv := &http.Server{
		Addr:    settings.Server.Addr,
		Handler: r,
	}

	// 启动服务器
	go func() {
		logging.Logger.Info("Server is running on " + settings.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 等待正在执行的定时任务结束
	<-scheduler.Stop().Done()

	if repository.RedisPool != nil {
		if err := repository.RedisPool.Close(); err != nil {
			logging.Logger.Warn("Redis pool close failed", zap.Error(err))
		}
	}
	if sqlDB, err := repository.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logging.Logger.Warn("Database close failed", zap.Error(err))
		}
	}

	logging.Logger.Info("Server exiting")
	_ = logging.Logger.Sync()
}

func main() {
	settings := initConfig()

	logging.InitLoggerFromConfig(settings.Log)
	logging.Logger.Info("Application started")

	repository.InitDB(settings.DB, logging.Logger, logging.AtomicLevel)
	cache := initCache(settings)

	store := repository.NewStore(repository.DB)
	colors := service.NewColorService(store, logging.Logger)
	seeded, err := colors.SeedPalette(context.Background(), settings.Palette)
	if err != nil {
		logging.Logger.Fatal("Failed to seed color palette", zap.Error(err))
	}
	logging.Logger.Info("Color palette ready", zap.Int64("inserted", seeded))

	links := service.NewLinkService(store, cache, settings, logging.Logger)
	groups := service.NewGroupService(store, colors, settings, logging.Logger)
	stats := service.NewStatsService(store, cache, logging.Logger)

	// 初始化 i18n（内嵌 TOML 文件）
	bundle, err := i18n.InitI18n("en")
	if err != nil {
		logging.Logger.Fatal("Failed to load i18n bundle", zap.Error(err))
	}

	if settings.Auth.JWTSecret == "" {
		logging.Logger.Warn("auth.jwt_secret is empty, every bearer token will be rejected")
	}

	gin.SetMode(settings.Server.Mode)
	r := handler.NewRouter(settings, bundle, handler.Handlers{
		Links:  handler.NewLinkHandler(links, logging.Logger),
		Groups: handler.NewGroupHandler(groups, logging.Logger),
		Health: handler.NewHealthHandler(store, logging.Logger),
	}, logging.Logger)

	// 定时把每日独立访客数写回数据库
	scheduler, err := stats.StartCron(settings.Stats.FlushSpec)
	if err != nil {
		logging.Logger.Fatal("Failed to schedule cron job", zap.Error(err))
	}

	startServer(r, settings, scheduler)
}
