package config

import (
	"context"
	"fmt"
	"log"

	"rentflow/middleware"
	"rentflow/services/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/robfig/cron/v3"
)

func InitApp(cfg *AppConfig, appLogger logger.Logger) (*gin.Engine, *melody.Melody, *cron.Cron, error) {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.RequestLogger(appLogger))

	configCors := cors.DefaultConfig()
	configCors.AddAllowHeaders("Authorization", middleware.HeaderRequestID)
	configCors.AddExposeHeaders(middleware.HeaderRequestID)
	configCors.AllowCredentials = true
	configCors.AllowAllOrigins = false
	configCors.AllowOriginFunc = func(origin string) bool {
		return true
	}
	router.Use(cors.New(configCors))

	router.SetTrustedProxies(nil)

	if err := initComponents(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize components: %v", err)
	}

	m := melody.New()

	c := cron.New(cron.WithLocation(cfg.Location))

	return router, m, c, nil
}

func initComponents(cfg *AppConfig) error {
	if cfg.ReservationStore != "memory" {
		if err := ConnectDB(cfg.Env); err != nil {
			return err
		}
	}

	if err := ConnectCloudinary(cfg.CloudinaryURL); err != nil {
		return fmt.Errorf("failed to init Cloudinary: %v", err)
	}

	if cfg.RedisAddr != "" {
		var err error
		RedisClient, err = ConnectRedis(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %v", err)
		}
	}

	log.Println("All components initialized successfully")
	return nil
}
