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
	config "github.com/postlinehq/postline/configs"
	"github.com/postlinehq/postline/internal/api/handlers"
	"github.com/postlinehq/postline/internal/credentials"
	"github.com/postlinehq/postline/internal/database"
	"github.com/postlinehq/postline/internal/dispatcher"
	job "github.com/postlinehq/postline/internal/jobs"
	"github.com/postlinehq/postline/internal/queue"
	"github.com/postlinehq/postline/internal/repository"
	"github.com/postlinehq/postline/internal/secret"
	"github.com/postlinehq/postline/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := database.Open(cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	cipher, err := secret.NewCipher(cfg.EncryptionKey, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize cipher: %v", err)
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

	postRepo := repository.NewPostRepository(db)
	accountRepo := repository.NewConnectedAccountRepository(db)

	postService := service.NewPostService(postRepo)
	accountService := service.NewAccountService(accountRepo, cipher)
	threadsOAuthService := service.NewThreadsOAuthService(*cfg, accountRepo, cipher)
	mediaService := service.NewMediaService(*cfg)

	resolver := credentials.NewResolver(cfg, accountRepo, cipher)
	d := dispatcher.New(postRepo, accountRepo, resolver, cfg.DispatchInterval)

	post := handlers.NewPostHandler(postService, client)
	app.Post("/posts", post.CreatePosts)
	app.Get("/posts", post.ListPosts)
	app.Delete("/posts/:id", post.RemovePost)

	account := handlers.NewAccountHandler(accountService)
	app.Get("/api/accounts/status", account.GetStatus)
	app.Post("/api/accounts/connect/threads", account.ConnectThreads)
	app.Delete("/api/accounts/disconnect/:platform", account.Disconnect)

	auth := handlers.NewAuthHandler(threadsOAuthService)
	app.Get("/api/auth/threads/authorize", auth.ThreadsAuthorize)
	app.Get("/api/auth/threads/callback", auth.ThreadsCallback)

	media := handlers.NewMediaHandler(mediaService)
	app.Post("/api/media/upload", media.Upload)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "message": "Social scheduler API is running"})
	})

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(accountRepo, threadsOAuthService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	d.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		worker := queue.NewWorker(d)
		mux.HandleFunc(queue.TaskTypePublishPost, worker.HandlePublishPostTask)

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

	gracefulShutdown(app, db, d, c)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, d *dispatcher.Dispatcher, c *cron.Cron) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	d.Stop()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
