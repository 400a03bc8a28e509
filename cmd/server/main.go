package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/api/handlers"
	"github.com/maheshrc27/socialflow/internal/api/middleware"
	job "github.com/maheshrc27/socialflow/internal/jobs"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/queue"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/secrets"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	// platform adapters
	httpClient := &http.Client{Timeout: cfg.Scheduler.PlatformTimeout}
	registry := platform.NewRegistry(
		platform.NewLinkedIn(platform.LinkedInConfig{
			ClientID:     cfg.LinkedInClientID,
			ClientSecret: cfg.LinkedInClientSecret,
			HTTPClient:   httpClient,
		}),
		platform.NewTwitter(platform.TwitterConfig{
			APIKey:     cfg.TwitterAPIKey,
			APISecret:  cfg.TwitterAPISecret,
			HTTPClient: httpClient,
		}),
		platform.NewInstagram(platform.InstagramConfig{
			AppID:      cfg.InstagramAppID,
			AppSecret:  cfg.InstagramAppSecret,
			HTTPClient: httpClient,
		}),
	)

	var tokenStore secrets.Store
	switch cfg.SecretsBackend {
	case "db":
		tokenStore, err = secrets.NewDBStore(db, cfg.SecretKey)
	default:
		tokenStore, err = secrets.NewAWSStoreFromRegion(ctx, cfg.AWSRegion)
	}
	if err != nil {
		log.Fatalf("Failed to configure token vault: %v", err)
	}
	resolver := secrets.NewResolver(tokenStore, cfg.SecretsPrefix)

	s3Client, err := service.NewS3Client(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("Failed to configure object storage: %v", err)
	}
	bedrockClient, err := service.NewBedrockClient(ctx, cfg.BedrockRegion)
	if err != nil {
		log.Fatalf("Failed to configure bedrock: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)
	oauthStateRepo := repository.NewOAuthStateRepository(rdb)

	// jobs
	analyticsScheduler := queue.NewAnalyticsScheduler(client, cfg.Scheduler.AnalyticsDelay)
	schedulerJob := job.NewPostSchedulerJob(
		postRepo,
		socialAccountRepo,
		registry,
		resolver,
		analyticsScheduler,
		cfg.Scheduler.Buffer,
		cfg.Scheduler.PlatformTimeout,
		cfg.Scheduler.PublishTimeout,
	)
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, registry, resolver, cfg.Scheduler.RefreshWindow)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo, socialAccountRepo, resolver)
	postService := service.NewPostService(db, postRepo, socialAccountRepo, schedulerJob)
	analyticsService := service.NewAnalyticsService(postRepo, socialAccountRepo, analyticsRepo, registry, resolver, cfg.Scheduler.PlatformTimeout)
	platformService := service.NewPlatformService(*cfg, socialAccountRepo, oauthStateRepo, registry, resolver)
	mediaService := service.NewMediaService(cfg.S3, s3Client, s3.NewPresignClient(s3Client), mediaAssetRepo)
	aiService := service.NewAIService(bedrockClient, cfg.BedrockTextModelID, cfg.BedrockImageModelID, mediaService, mediaAssetRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Printf("Error: %v", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
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

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Post("/logout", auth.Logout)

	platformHandler := handlers.NewPlatformHandler(platformService, *cfg)
	app.Get("/auth/:platform/callback", platformHandler.CallbackHandler)

	api := app.Group("/", authMiddleware.AuthMiddleware())

	api.Get("/auth/:platform/oauth-url", platformHandler.GetOAuthURL)
	api.Get("/accounts", platformHandler.ListSocialAccounts)
	api.Delete("/accounts/:account_id", platformHandler.DeleteSocialAccount)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Delete("/user", user.RemoveUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService, analyticsService)
	api.Post("/posts/schedule", post.SchedulePost)
	api.Post("/posts/immediate", post.PostNow)
	api.Get("/posts/scheduled", post.ListScheduled)
	api.Delete("/posts/:post_id", post.CancelPost)
	api.Get("/posts/:post_id/analytics", post.GetAnalytics)
	api.Post("/posts/:post_id/refresh-analytics", post.RefreshAnalytics)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.Upload)
	api.Get("/media", media.List)
	api.Delete("/media/:id", media.Remove)
	api.Post("/media/presign", media.Presign)

	ai := handlers.NewAIHandler(aiService)
	api.Post("/ai/generate-text", ai.GenerateText)
	api.Post("/ai/generate-image", ai.GenerateImage)

	// cron jobs
	c := cron.New()
	c.AddFunc(everySpec(cfg.Scheduler.Interval), schedulerJob.Run)
	c.AddFunc(everySpec(cfg.Scheduler.RefreshInterval), refreshTokenJob.RefreshTokens)
	c.Start()
	defer c.Stop()

	// the first tick runs at startup instead of one interval later
	go schedulerJob.Run()

	//queue
	queueW := queue.NewQueue(analyticsService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.QueueConcurrency,
	})

	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeCollectAnalytics, queueW.HandleCollectAnalyticsTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.APIBaseURL)

	gracefulShutdown(app, server)
}

func everySpec(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	server.Shutdown()

	log.Println("Server shutdown complete.")
}
