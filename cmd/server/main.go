package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"qota_server/internal/handlers"
	appMiddleware "qota_server/internal/middleware"
	"qota_server/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis cache (optional: holiday lookups degrade gracefully)
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	}

	// Core services
	notifier := services.NewNotifier(db)
	ledger := services.NewLedgerService(db)
	quota := services.NewQuotaService(db, notifier)
	expenses := services.NewExpenseService(db, notifier)
	holidays := services.NewHolidayService(cache)
	reservations := services.NewReservationService(db, holidays, notifier)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler
	e.Validator = handlers.NewRequestValidator()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db)
	propertyHandler := handlers.NewPropertyHandler(db, ledger, quota)
	inviteHandler := handlers.NewInviteHandler(db, quota)
	expenseHandler := handlers.NewExpenseHandler(db, expenses)
	reservationHandler := handlers.NewReservationHandler(db, reservations)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	api.Use(appMiddleware.RequireAuth(authClient, db))

	// Profile and notifications
	api.GET("/me", userHandler.Me)
	api.PUT("/me", userHandler.UpdateMe)
	api.GET("/me/notifications", userHandler.ListNotifications)
	api.POST("/notifications/:id/read", userHandler.MarkNotificationRead)
	api.GET("/me/invites", inviteHandler.ListMyInvites)
	api.GET("/me/reservations", reservationHandler.ListMyReservations)

	// Properties and memberships
	api.POST("/properties", propertyHandler.StoreProperty)
	api.GET("/properties", propertyHandler.ListProperties)
	api.GET("/properties/:id", propertyHandler.GetProperty)
	api.PUT("/properties/:id", propertyHandler.UpdateProperty)
	api.DELETE("/properties/:id", propertyHandler.DeleteProperty)
	api.PUT("/properties/:id/memberships/:membershipId/quota", propertyHandler.UpdateQuota)
	api.PUT("/properties/:id/memberships/:membershipId/role", propertyHandler.ChangeRole)
	api.DELETE("/properties/:id/memberships/:membershipId", propertyHandler.Unlink)

	// Invites
	api.POST("/properties/:id/invites", inviteHandler.StoreInvite)
	api.GET("/properties/:id/invites", inviteHandler.ListInvites)
	api.POST("/invites/:token/accept", inviteHandler.AcceptInvite)
	api.POST("/invites/:token/cancel", inviteHandler.CancelInvite)

	// Expenses and payments
	api.POST("/properties/:id/expenses", expenseHandler.StoreExpense)
	api.GET("/properties/:id/expenses", expenseHandler.ListExpenses)
	api.PUT("/expenses/:id/amount", expenseHandler.UpdateExpenseAmount)
	api.POST("/expenses/:id/cancel", expenseHandler.CancelExpense)
	api.POST("/payments/:id/mark", expenseHandler.MarkPayment)

	// Reservations
	api.POST("/properties/:id/reservations", reservationHandler.StoreReservation)
	api.GET("/properties/:id/reservations", reservationHandler.ListReservations)
	api.POST("/reservations/:id/cancel", reservationHandler.CancelReservation)
	api.POST("/reservations/:id/checkin", reservationHandler.CheckIn)
	api.POST("/reservations/:id/checkout", reservationHandler.CheckOut)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
