package main

import (
	"log"
	_ "time/tzdata"

	"rentflow/config"
	"rentflow/controllers"
	"rentflow/jobs"
	"rentflow/routes"
	"rentflow/services"
	"rentflow/services/logger"
	"rentflow/services/notification"
	"rentflow/services/timegate"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	appLogger := logger.NewDefaultLogger(cfg.LogLevel)

	if len(cfg.JWTSecret) == 0 {
		log.Fatalf("JWT_SECRET chưa được cấu hình")
	}

	router, m, c, err := config.InitApp(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	var store services.ReservationStore
	if cfg.ReservationStore == "memory" {
		appLogger.Warn("đang dùng bộ nhớ tạm để lưu đặt chỗ, dữ liệu sẽ mất khi khởi động lại")
		store = services.NewMemoryReservationStore()
	} else {
		gormStore := services.NewGormReservationStore(config.DB)
		if err := gormStore.AutoMigrate(); err != nil {
			log.Fatalf("Failed to migrate tables: %v", err)
		}
		store = gormStore
	}
	if config.RedisClient != nil {
		store = services.NewCachedReservationStore(store, config.RedisClient, cfg.CacheTTL, appLogger)
	}

	notifier := notification.NewMelodyService(m)
	reservationService := services.NewReservationService(services.ReservationServiceOptions{
		Store:    store,
		Clock:    timegate.SystemClock{},
		Logger:   appLogger,
		Notifier: notifier,
		Location: cfg.Location,
	})

	var uploader services.ProofUploader = services.URLOnlyUploader{}
	if config.Cloudinary != nil {
		uploader = services.NewCloudinaryUploader(config.Cloudinary, cfg.ProofFolder)
	}
	workflow := services.NewCancellationWorkflow(reservationService, uploader, appLogger)

	reminder := jobs.NewWindowReminder(reservationService, notifier, cfg.ReminderLead, appLogger)
	if err := jobs.InitCronJobs(c, cfg.ReminderCron, reminder); err != nil {
		log.Fatalf("Failed to initialize cron jobs: %v", err)
	}
	defer c.Stop()

	reservationController := controllers.NewReservationController(reservationService, workflow, appLogger)
	routes.SetupRoutes(router, reservationController, cfg.JWTSecret, m)

	log.Println("Server starting on port " + cfg.Port + "...")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
