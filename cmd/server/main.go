package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invite-portal/internal/adapters/http/middleware"
	"invite-portal/internal/adapters/http/routes"
	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/config"
	"invite-portal/internal/core/services"
	"invite-portal/internal/pkg/logger"
	"invite-portal/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	_ "invite-portal/docs" // Swagger docs
)

// @title Invite Portal API
// @version 1.0
// @description Invite application site: applications, tab sessions and member management.

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey TabToken
// @in header
// @name X-Tab-Token
// @description Signed tab token; browsers send it as the tab_token cookie.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.AppMode, cfg.LogLevel)
	ctx := context.Background()

	// Open durable storage
	storage, err := config.OpenStorage(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			appLog.WithError(err).Error("❌ Error closing storage")
		}
	}()

	hasher, err := password.New(password.Scheme(cfg.Password.Scheme), cfg.Password.BcryptCost, cfg.Password.Salt)
	if err != nil {
		appLog.Fatalf("❌ Invalid password configuration: %v", err)
	}
	verifier := password.Verifier{Salt: cfg.Password.Salt}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(storage.Store, appLog)
	applicationRepo := repositories.NewApplicationRepository(storage.Store, appLog)
	notificationRepo := repositories.NewNotificationRepository(storage.Store, appLog)
	settingsRepo := repositories.NewSettingsRepository(storage.Store, appLog)

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, time.Now, appLog)
	applicationService := services.NewApplicationService(applicationRepo, notificationService, time.Now, appLog)
	userService := services.NewUserService(userRepo, hasher, time.Now, appLog)
	databaseService := services.NewDatabaseService(storage.Store, storage.Backend, userRepo, applicationRepo,
		notificationRepo, settingsRepo, notificationService, hasher, cfg, time.Now, appLog)

	if err := databaseService.Init(ctx); err != nil {
		appLog.Fatalf("❌ Failed to initialize storage: %v", err)
	}

	// Each tab gets its own ephemeral session area over the shared durable store
	tabs := services.NewTabManager(func(tabID string) *services.AuthService {
		sessions := repositories.NewSessionRepository(kv.NewMemoryStore(), storage.Store)
		return services.NewAuthService(userRepo, sessions, verifier, cfg, time.Now, appLog.WithField("tab_id", tabID))
	}, cfg.Session.TabIdleTTL, time.Now, appLog)

	// Start cleanup, session expiry and tab sweep jobs
	cronService := services.NewCronService(databaseService, tabs, cfg, time.Now, appLog)
	if err := cronService.Start(); err != nil {
		appLog.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Invite Portal API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	routes.Setup(app, &routes.Deps{
		Config:        cfg,
		Storage:       storage,
		Tabs:          tabs,
		Applications:  applicationService,
		Users:         userService,
		Database:      databaseService,
		Notifications: notificationService,
		Now:           time.Now,
		Log:           appLog,
	})

	// Graceful shutdown
	go gracefulShutdown(app, appLog)

	// Start server
	appLog.Infof("🚀 Server starting on port %s [MODE: %s, STORAGE: %s]", cfg.Port, cfg.AppMode, storage.Backend)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Errorf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log logrus.FieldLogger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("❌ Error during shutdown")
	}
	log.Info("✅ Server stopped gracefully")
}
