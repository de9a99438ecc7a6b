package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/perkpass/perkpass-backend/internal/clients"
	"github.com/perkpass/perkpass-backend/internal/database"
	"github.com/perkpass/perkpass-backend/internal/handlers"
	"github.com/perkpass/perkpass-backend/internal/middleware"
	"github.com/perkpass/perkpass-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Initialize database with better error handling
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Finance service credentials are read here once and passed down; the
	// client never touches the environment itself.
	financeClient := clients.NewFinanceClient(clients.FinanceConfig{
		BaseURL:  os.Getenv("FINANCE_API_URL"),
		Username: os.Getenv("FINANCE_API_USERNAME"),
		Password: os.Getenv("FINANCE_API_PASSWORD"),
	})

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))
	r.Use(middleware.RequestID())

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/request-access", middleware.OTPRateLimit(), handlers.RequestAccess(db))
			auth.POST("/verify-otp", handlers.VerifyOTP(db))
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/coupons", handlers.GetUserCoupons(financeClient))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
