package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/api/handlers"
	"github.com/publora/publora/internal/api/middleware"
	"github.com/publora/publora/internal/content"
	"github.com/publora/publora/internal/gateway"
	job "github.com/publora/publora/internal/jobs"
	"github.com/publora/publora/internal/queue"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	postJobRepo := repository.NewPostJobRepository(db)
	historyRepo := repository.NewPublishHistoryRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	entryRepo := repository.NewCalendarEntryRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	gatewayClient := gateway.NewClient(*cfg)
	contentClient := content.NewClient(*cfg)

	r2Service := service.NewR2Service(*cfg)
	mediaService := service.NewMediaService(*cfg, mediaAssetRepo, postMediaRepo, *r2Service)
	publishService := service.NewPublishService(*cfg, db, postRepo, postJobRepo, historyRepo, socialAccountRepo, postMediaRepo, entryRepo, mediaService, gatewayClient)
	metricsService := service.NewMetricsService(*cfg, postJobRepo, gatewayClient)
	calendarService := service.NewCalendarService(db, calendarRepo, entryRepo, subscriptionRepo, userRepo, contentClient)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	publish := handlers.NewPublishHandler(publishService, metricsService, client)
	api.Post("/posts/create", publish.Dispatch)
	api.Get("/posts", publish.ListPosts)
	api.Post("/posts/retry", publish.RetryJob)
	api.Get("/posts/metrics", publish.JobMetrics)
	api.Post("/posts/remove", publish.RemovePost)

	calendar := handlers.NewCalendarHandler(calendarService)
	api.Post("/calendars/generate", calendar.GenerateCalendar)
	api.Get("/calendars", calendar.ListCalendars)
	api.Get("/calendars/weeks", calendar.CalendarWeeks)
	api.Post("/calendars/entry/generate", calendar.GenerateEntryContent)
	api.Post("/calendars/entry/status", calendar.SetEntryStatus)
	api.Post("/calendars/remove", calendar.RemoveCalendar)

	accounts := handlers.NewAccountHandler(socialAccountRepo)
	api.Get("/accounts", accounts.ListAccounts)

	// cron jobs
	sweepJob := job.NewCalendarSweepJob(calendarRepo)

	// queue
	queueW := queue.NewQueue(publishService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", sweepJob.SweepExpired)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
