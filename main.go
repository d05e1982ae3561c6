package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pathology-lab-server/config"
	"pathology-lab-server/database"
	"pathology-lab-server/jobs"
	"pathology-lab-server/middleware"
	"pathology-lab-server/models"
	"pathology-lab-server/routes"
	"pathology-lab-server/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database (runs migrations and seeds the settings singleton)
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Seed a starter catalog on first boot
	if err := seedLabTests(); err != nil {
		log.Printf("⚠️ Catalog seeding failed: %v", err)
	}

	// Set Gin mode
	if config.AppConfig.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())

	// Input validation
	router.Use(middleware.InputValidationMiddleware())

	// Rate limiting
	router.Use(middleware.RateLimitMiddleware())

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://pawarpathologylab.com"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Audit logging
	router.Use(middleware.AuditLogMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Pathology Lab Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// Report uploads degrade to a failure marker when Cloudinary is not
	// configured, so a missing uploader never blocks the workflow.
	var uploader services.ReportUploader
	if cld, err := services.NewCloudinaryUploader(); err != nil {
		log.Printf("⚠️ Cloudinary not configured, report uploads will be marked failed: %v", err)
	} else {
		uploader = cld
	}

	engine := services.NewTransitionEngine(
		database.NewBookingStore(database.DB),
		uploader,
		services.NewDBNotifier(),
	)

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (no authentication required) - with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Public catalog and settings reads (the booking form needs these
		// before login)
		routes.RegisterTestRoutes(api)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Booking routes (protected) - creation, listing, workflow
			bookingRoutes := protected.Group("/bookings")
			routes.RegisterBookingRoutes(bookingRoutes, engine)

			// Notification routes (protected)
			notificationRoutes := protected.Group("/notifications")
			routes.RegisterNotificationRoutes(notificationRoutes)
		}

		// Admin routes (protected with admin role)
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware())
		adminRoutes.Use(middleware.RequireRole(models.RoleAdmin))
		routes.RegisterAdminRoutes(adminRoutes)

		// Settings: reads are public, writes stay on the same paths but
		// behind the admin gate
		adminGate := api.Group("")
		adminGate.Use(middleware.AuthMiddleware())
		adminGate.Use(middleware.RequireRole(models.RoleAdmin))
		routes.RegisterSettingsRoutes(api, adminGate)
	}

	// Start background jobs
	blackoutSweep := jobs.NewBlackoutSweepJob()
	blackoutSweep.Start()
	defer blackoutSweep.Stop()

	middleware.StartRateLimiterCleanup()

	port := config.AppConfig.Server.Port
	log.Printf("Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
