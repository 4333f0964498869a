package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/database"
	"github.com/pepewuff/backend/internal/database/migrations"
	"github.com/pepewuff/backend/internal/jobs"
	"github.com/pepewuff/backend/internal/middleware"
	"github.com/pepewuff/backend/internal/queue"
	"github.com/pepewuff/backend/internal/routes"
	"github.com/pepewuff/backend/internal/services/chain"
	"github.com/pepewuff/backend/internal/services/presale"
	"github.com/pepewuff/backend/internal/services/pricing"
	"github.com/pepewuff/backend/internal/services/referral"
	"github.com/pepewuff/backend/internal/services/transaction"
)

func main() {
	// Initialize configuration (loads .env if present)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup database connection
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	presaleSvc := presale.NewService(db)
	pricingSvc := pricing.NewService(cfg.Pricing)
	referralSvc := referral.NewService(db)

	chainSvc, err := chain.NewService(cfg.Chain)
	if err != nil {
		log.Fatalf("Failed to initialize chain service: %v", err)
	}

	// Initialize job queue and wire the transaction service to it
	jobQueue := queue.NewQueue(db)
	txSvc := transaction.NewService(db, jobs.NewConfirmEnqueuer(jobQueue))
	jobs.RegisterConfirmationJobHandlers(jobQueue, chainSvc, txSvc)

	// Start job queue processor in a goroutine
	go jobQueue.ProcessJobs()

	// Start recurring jobs
	scheduler, err := jobs.StartScheduler(jobQueue, presaleSvc, pricingSvc, txSvc)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize router
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Register routes
	rateLimiter := middleware.NewRateLimiter(20, 40)
	defer rateLimiter.Stop()
	routes.RegisterRoutes(router, db, cfg, presaleSvc, pricingSvc, referralSvc, txSvc, rateLimiter)

	// Start server
	fmt.Printf("Presale API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
