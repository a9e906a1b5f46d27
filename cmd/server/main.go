package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/api/handlers"
	"github.com/publora/publora/internal/api/middleware"
	"github.com/publora/publora/internal/dispatch"
	job "github.com/publora/publora/internal/jobs"
	"github.com/publora/publora/internal/metrics"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/queue"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/retry"
	"github.com/publora/publora/internal/scheduler"
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
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	contentRepo := repository.NewContentRepository(db)

	registry := platform.NewRegistry()
	registry.Register(platform.NewFacebook(nil))
	registry.Register(platform.NewInstagram(nil))
	registry.Register(platform.NewTwitter(nil))
	registry.Register(platform.NewYouTube(nil))
	registry.Register(platform.NewMailchimp())
	registry.Alias("x", "twitter")

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	sink := metrics.NewPrometheus(promRegistry)

	policy := retryPolicy(cfg)
	executor := dispatch.NewExecutor(socialAccountRepo, registry, policy, []byte(cfg.SecretKey), cfg.PublishConcurrency, sink)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(*cfg)
	platformService := service.NewPlatformService(*cfg, socialAccountRepo)
	instagramService := service.NewInstagramService(*cfg, socialAccountRepo)
	facebookService := service.NewFacebookService(*cfg, socialAccountRepo)
	youtubeService := service.NewYoutubeService(*cfg, socialAccountRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)
	scheduleService := service.NewScheduleService(scheduleRepo, contentRepo, registry)
	contentService := service.NewContentService(contentRepo)
	insightsService := service.NewInsightsService(socialAccountRepo, executor)
	assetService := service.NewAssetService(*cfg, mediaAssetRepo, r2Service)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	platformH := handlers.NewPlatformHandler(platformService, instagramService, facebookService, youtubeService, *cfg)
	app.Get("/auth/:platform", platformH.AddSocialAccount)
	app.Get("/auth/:platform/callback", platformH.CallbackHandler)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/remove", user.RemoveUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	schedule := handlers.NewScheduleHandler(scheduleService)
	api.Post("/schedules/create", schedule.CreateSchedule)
	api.Get("/schedules", schedule.ListSchedules)
	api.Post("/schedules/cancel", schedule.CancelSchedule)

	content := handlers.NewContentHandler(contentService)
	api.Post("/contents/create", content.CreateContent)
	api.Get("/contents", content.ListContents)
	api.Post("/contents/remove", content.RemoveContent)

	asset := handlers.NewAssetHandler(assetService)
	api.Post("/assets/upload", asset.UploadAsset)
	api.Get("/assets/list", asset.ListAssets)
	api.Post("/assets/remove", asset.RemoveAsset)

	insights := handlers.NewInsightsHandler(insightsService)
	api.Get("/insights/overview", insights.GetOverview)

	// social accounts api routes
	api.Get("/accounts", platformH.ListSocialAccounts)
	api.Post("/accounts/remove", platformH.DeleteSocialAccount)

	worker := queue.NewWorker(scheduleRepo, contentRepo, executor, sink)
	sweeper := scheduler.NewSweeper(scheduleRepo, client)

	// Re-arm anything a previous process left mid-publication.
	if err := sweeper.Recover(context.Background()); err != nil {
		log.Printf("Recovery failed: %v", err)
	}

	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, youtubeService, instagramService)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %s", cfg.SchedulerTick), sweeper.ProcessDueSchedules)
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.PublishConcurrency,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishSchedule, worker.HandlePublishScheduleTask)

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

func retryPolicy(cfg *config.Config) retry.Policy {
	policy := retry.Default(platform.IsTransient)
	if cfg.RetryMaxAttempts > 0 {
		policy.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelay > 0 {
		policy.BaseDelay = cfg.RetryBaseDelay
	}
	return policy
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
