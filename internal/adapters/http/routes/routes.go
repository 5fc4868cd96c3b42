package routes

import (
	"time"

	"invite-portal/internal/adapters/http/handlers"
	"invite-portal/internal/adapters/http/middleware"
	"invite-portal/internal/config"
	"invite-portal/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"
)

// Deps holds everything the routes are wired to
type Deps struct {
	Config        *config.Config
	Storage       handlers.HealthChecker
	Tabs          *services.TabManager
	Applications  services.ApplicationManager
	Users         *services.UserService
	Database      *services.DatabaseService
	Notifications *services.NotificationService
	Now           services.Clock
	Log           logrus.FieldLogger
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps *Deps) {
	healthHandler := handlers.NewHealthHandler(deps.Storage, deps.Config)
	authHandler := handlers.NewAuthHandler(deps.Tabs, deps.Config)
	applicationHandler := handlers.NewApplicationHandler(deps.Applications)
	userHandler := handlers.NewUserHandler(deps.Users)
	systemHandler := handlers.NewSystemHandler(deps.Database, deps.Notifications, deps.Now)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group, every request is bound to a browser tab
	apiV1 := app.Group("/api/v1", middleware.TabSession(deps.Tabs, deps.Config, deps.Log))
	apiV1.Get("/", healthHandler.APIInfo)

	authRoutes := apiV1.Group("/auth", middleware.NoCacheHeaders())
	setupAuthRoutes(authRoutes, authHandler)

	applicationRoutes := apiV1.Group("/applications")
	setupApplicationRoutes(applicationRoutes, applicationHandler)

	// User management routes (premium only)
	userRoutes := apiV1.Group("/users", middleware.RequireAuth(), middleware.PremiumOnly(), middleware.CSRFProtect())
	setupUserRoutes(userRoutes, userHandler)

	apiV1.Get("/settings", middleware.CacheControl(time.Minute), systemHandler.Settings)
	apiV1.Put("/settings", middleware.RequireAuth(), middleware.PremiumOnly(), middleware.CSRFProtect(), systemHandler.UpdateSettings)
	apiV1.Get("/notifications", middleware.RequireAuth(), middleware.PremiumOnly(), systemHandler.Notifications)

	systemRoutes := apiV1.Group("/system", middleware.RequireAuth(), middleware.PremiumOnly(), middleware.CSRFProtect())
	systemRoutes.Get("/info", systemHandler.Info)
	systemRoutes.Post("/cleanup", systemHandler.Cleanup)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/logout", handler.Logout)
	router.Get("/display", handler.Display)

	// Protected routes
	router.Get("/me", middleware.RequireAuth(), handler.Me)
	router.Get("/csrf", middleware.RequireAuth(), handler.CSRF)
	router.Post("/activity", middleware.RequireAuth(), handler.Activity)
}

// setupApplicationRoutes configures application routes
func setupApplicationRoutes(router fiber.Router, handler *handlers.ApplicationHandler) {
	// Public application form
	router.Post("/", middleware.SubmitRateLimiter(), handler.Create)

	// Member can view their own applications
	router.Get("/my", middleware.RequireAuth(), handler.My)

	// Premium routes
	premium := router.Group("", middleware.RequireAuth(), middleware.PremiumOnly(), middleware.CSRFProtect())
	premium.Get("/", handler.List)
	premium.Get("/stats", handler.Stats)
	premium.Get("/:id", handler.Get)
	premium.Put("/:id/status", handler.UpdateStatus)
}

// setupUserRoutes configures user management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Post("/", handler.CreateUser)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
}
