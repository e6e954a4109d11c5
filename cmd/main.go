package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LuckysHorizon/SmartReminder/internal/consumer"
	"github.com/LuckysHorizon/SmartReminder/internal/handler"
	"github.com/LuckysHorizon/SmartReminder/internal/middleware"
	"github.com/LuckysHorizon/SmartReminder/internal/presenter"
	"github.com/LuckysHorizon/SmartReminder/internal/repository"
	"github.com/LuckysHorizon/SmartReminder/internal/scheduler"
	"github.com/LuckysHorizon/SmartReminder/internal/service"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/config"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/mongodb"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/rabbitmq"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/redisdb"
	"github.com/LuckysHorizon/SmartReminder/internal/websocket"
	"github.com/LuckysHorizon/SmartReminder/internal/worker"
)

func main() {
	// Initialize logger
	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting Smart Reminder service...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Initialize MongoDB
	mongoClient, err := mongodb.NewMongoClient(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Initialize Redis
	redisClient, err := redisdb.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisClient.Close()

	// Initialize RabbitMQ
	rabbitClient, err := rabbitmq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", "error", err)
	}
	defer rabbitClient.Close()

	// Initialize repositories
	notificationRepo := repository.NewNotificationRepository(mongoClient)
	if err := notificationRepo.EnsureIndexes(context.Background()); err != nil {
		log.Error("Failed to ensure indexes", "error", err)
	}
	actionQueue := repository.NewActionQueue(redisClient)
	permissionStore := repository.NewPermissionStore(redisClient)

	// Initialize page-context hub
	hub := websocket.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	// Initialize background delivery worker
	deliveryWorker := worker.NewWorker(hub, actionQueue, cfg.Scheduler.ShowQueueSize, log)
	deliveryWorker.Start()
	defer deliveryWorker.Stop()

	// Initialize services
	scheduleService := service.NewScheduleService(notificationRepo, log)
	recurrenceEngine := service.NewRecurrenceEngine(notificationRepo, log)
	alertPresenter := presenter.NewPresenter(permissionStore, deliveryWorker, hub, cfg.Scheduler.CooldownTTL, log)
	evaluator := service.NewTriggerEvaluator(notificationRepo, alertPresenter, recurrenceEngine, cfg.Scheduler.GroupWindow, log)

	// Initialize scheduler loop
	reminderScheduler := scheduler.NewScheduler(evaluator, cfg.Scheduler.Interval, cfg.Scheduler.WakeDebounce, log)
	if err := reminderScheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler", "error", err)
	}
	defer reminderScheduler.Stop()

	// Page connect acts like visibility regain: replay queued actions and
	// re-check for due notifications
	deliveryWorker.SetWaker(reminderScheduler)
	hub.SetOnConnect(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		deliveryWorker.OnPageConnect(ctx)
	})

	// Initialize HTTP handlers
	reminderHandler := handler.NewReminderHandler(scheduleService, notificationRepo, log)
	actionHandler := handler.NewActionHandler(deliveryWorker, scheduleService, actionQueue, log)
	permissionHandler := handler.NewPermissionHandler(permissionStore, log)

	// Initialize rate limiter
	rateLimiter := middleware.NewClientRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Page context websocket attach
	router.GET("/ws", websocket.ServeWS(hub, deliveryWorker, log))

	// API routes with rate limiting
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(rateLimiter))
	{
		reminders := v1.Group("/reminders")
		{
			reminders.POST("", reminderHandler.CreateReminder)
			reminders.GET("", reminderHandler.GetReminders)
			reminders.GET("/:id", reminderHandler.GetReminder)
			reminders.DELETE("/:id", reminderHandler.DeleteReminder)
			reminders.POST("/snooze", reminderHandler.SnoozeReminder)
		}

		v1.DELETE("/tasks/:taskId/reminders", reminderHandler.DeleteTaskReminders)

		actions := v1.Group("/actions")
		{
			actions.POST("", actionHandler.PostAction)
			actions.GET("/pending", actionHandler.GetPendingActions)
		}

		permission := v1.Group("/permission")
		{
			permission.GET("", permissionHandler.GetPermission)
			permission.PUT("", permissionHandler.UpdatePermission)
		}

		// Focus-regain analog: ask for an ad hoc evaluation pass
		v1.POST("/scheduler/wake", func(c *gin.Context) {
			reminderScheduler.Wake("focus")
			c.JSON(http.StatusAccepted, gin.H{"message": "Wake requested"})
		})
	}

	// Start task event consumer
	taskConsumer := consumer.NewTaskEventConsumer(rabbitClient, scheduleService, log)
	go func() {
		if err := taskConsumer.Start(); err != nil {
			log.Error("Failed to start task event consumer", "error", err)
		}
	}()

	// Start HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Smart Reminder service started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Smart Reminder service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Smart Reminder service stopped")
}
