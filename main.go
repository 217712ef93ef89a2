package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/handlers"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/monitoring"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Application holds all application dependencies and state.
type Application struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Cache  *cache.RedisCache
	Worker *worker.Worker
	Router *gin.Engine
	Server *http.Server

	TaskService services.TaskService
	UserService services.UserService
	AuthService services.AuthService
	Notifier    *services.Notifier
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	db, err := repositories.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.DB = db
	log.Println("database connected")

	if err := repositories.RunMigrations(db, &repositories.MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         cfg.Database.Name,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	redisCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := redisCache.Ping(); err != nil {
		log.Printf("redis unavailable: %v (continuing without cache and worker)", err)
		redisCache.Close()
	} else {
		app.Cache = redisCache
		log.Println("redis connected")
	}

	taskService := services.NewTaskService()
	app.UserService = services.NewUserService(cfg.Auth.BCryptCost)
	app.AuthService = services.NewAuthService(cfg.Auth)

	if app.Cache != nil {
		// Entries written by a previous run may predate this schema.
		if err := app.Cache.DeletePattern("task:*"); err != nil {
			log.Printf("failed to purge stale task cache entries: %v", err)
		}
		app.Cache.Delete("all_tasks")

		app.TaskService = services.NewCachedTaskService(taskService, app.Cache)

		app.Redis = redis.NewClient(&redis.Options{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		app.Worker = worker.NewWorker(worker.Config{
			RedisClient:  app.Redis,
			Concurrency:  cfg.Worker.Concurrency,
			PollInterval: cfg.Worker.PollInterval,
			Queue:        cfg.Worker.Queue,
		})
		app.Worker.RegisterHandler(worker.JobTypeAssignmentNotification, notifyAssignment)
		app.Worker.RegisterHandler(worker.JobTypeTaskReminder, remindTaskDue)
		app.Worker.Start()
		app.Notifier = services.NewNotifier(app.Worker)
	} else {
		app.TaskService = taskService
	}

	return app, nil
}

// notifyAssignment is where a mail or push integration would hook in;
// for now the notification is the log line.
func notifyAssignment(ctx context.Context, job *worker.Job) error {
	log.Printf("task %v assigned to users %v", job.Payload["task_id"], job.Payload["user_ids"])
	return nil
}

func remindTaskDue(ctx context.Context, job *worker.Job) error {
	log.Printf("task %v due at %v", job.Payload["task_id"], job.Payload["due_date"])
	return nil
}

func (app *Application) setupRoutes() {
	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.Default())

	if app.Config.RateLimit.Enabled {
		perSecond := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
		router.Use(middleware.RateLimiter(perSecond, app.Config.RateLimit.BurstSize, app.Config.RateLimit.CleanupInterval))
	}

	authHandler := handlers.NewAuthHandler(app.DB, app.UserService, app.AuthService)
	userHandler := handlers.NewUserHandler(app.DB, app.UserService)
	taskHandler := handlers.NewTaskHandler(app.DB, app.TaskService, app.Notifier)

	adminOnly := middleware.AuthzMiddleware(middleware.AuthzConfig{
		Secret: app.Config.Auth.JWTSecret,
		Role:   "admin",
	})

	router.GET("/health", monitoring.HealthHandler(app.Cache))
	router.GET("/metrics", monitoring.MetricsHandler)

	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refreshToken", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/create_user", userHandler.CreateUser)
		v1.GET("/get_users", userHandler.GetUsers)
		v1.GET("/get_user_details/:id", userHandler.GetUserByID)
		v1.PUT("/update_user/:id", userHandler.UpdateUser)
		v1.DELETE("/delete_user/:id", userHandler.DeleteUser)

		v1.POST("/create_task", adminOnly, taskHandler.CreateTask)
		v1.GET("/get_tasks", taskHandler.GetTasks)
		v1.GET("/get_task_details/:id", taskHandler.GetTaskByID)
		v1.PUT("/update_task/:id", adminOnly, taskHandler.UpdateTask)
		v1.DELETE("/delete_task/:id", adminOnly, taskHandler.DeleteTask)
	}

	app.Router = router
}

func (app *Application) startServer() {
	app.Server = &http.Server{
		Addr:         app.Config.GetServerAddr(),
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		log.Printf("server listening on %s", app.Server.Addr)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if app.Worker != nil {
		app.Worker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	if app.Redis != nil {
		app.Redis.Close()
	}

	log.Println("server stopped")
}
