package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/leadforgehq/outreach-backend/docs"
	"github.com/leadforgehq/outreach-backend/internal/database"
	"github.com/leadforgehq/outreach-backend/internal/database/repository"
	"github.com/leadforgehq/outreach-backend/internal/handlers"
	"github.com/leadforgehq/outreach-backend/internal/middleware"
	"github.com/leadforgehq/outreach-backend/internal/models"
	"github.com/leadforgehq/outreach-backend/internal/router"
	"github.com/leadforgehq/outreach-backend/internal/services"
	"github.com/leadforgehq/outreach-backend/internal/services/excel"
	"github.com/leadforgehq/outreach-backend/internal/services/provider"
	"github.com/leadforgehq/outreach-backend/internal/utils"
)

// @title LeadForge Outreach API
// @version 1.0
// @description Outreach campaign engine: lead import, segmentation, templated campaigns, batch sending and analytics

// @contact.name LeadForge Support
// @contact.email support@leadforgehq.com

// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Enter `ApiKey ` followed by your workspace API key (e.g. "ApiKey lf_abc_secret")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	docs.SwaggerInfo.BasePath = getEnv("BASE_PATH", "/")

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Repositories
	workspaceRepo := repository.NewWorkspaceRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	batchRepo := repository.NewImportBatchRepository(db)

	// Initialize RabbitMQ service; the engine degrades to periodic
	// drains when the broker is unavailable
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
		rabbitMQService = nil
	} else {
		defer rabbitMQService.Close()
	}

	// Services
	apiKeyService := services.NewAPIKeyService(apiKeyRepo)
	leadService := services.NewLeadService(leadRepo, segmentRepo)
	segmentService := services.NewSegmentService(segmentRepo, leadRepo)
	importerService := services.NewImporterService(leadRepo, batchRepo, segmentRepo, services.DefaultRequiredFields)
	excelService := excel.NewExcelService()
	trackingService := services.NewTrackingService(
		messageRepo,
		getEnv("TRACKING_SECRET", "change-me-in-production"),
		getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
	)
	campaignService := services.NewCampaignService(campaignRepo, messageRepo, leadRepo, workspaceRepo, rabbitMQService)
	analyticsService := services.NewAnalyticsService(campaignRepo, messageRepo, leadRepo)

	// Email provider
	smtpProvider := provider.NewSMTPProvider(
		getEnv("SMTP_HOST", "localhost"),
		getEnvAsInt("SMTP_PORT", 587),
		getEnv("SMTP_USER", ""),
		getEnv("SMTP_PASS", ""),
	)

	// Batch sender
	senderService := services.NewSenderService(campaignRepo, messageRepo, leadRepo, workspaceRepo, smtpProvider, trackingService)
	senderService.Start()
	defer senderService.Stop()

	if rabbitMQService != nil {
		if err := senderService.StartQueueConsumer(rabbitMQService); err != nil {
			logrus.Warnf("Failed to start dispatch consumer: %v", err)
		}
	}

	// Scheduler: promotes due campaigns and generates follow-ups
	schedulerService := services.NewSchedulerService(campaignRepo, messageRepo, workspaceRepo, rabbitMQService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Create the default workspace on first boot
	if err := ensureDefaultWorkspace(workspaceRepo, apiKeyService); err != nil {
		logrus.Warnf("Failed to ensure default workspace: %v", err)
	}

	// Handlers
	h := &router.Handlers{
		Lead:          handlers.NewLeadHandler(leadService),
		Segment:       handlers.NewSegmentHandler(segmentService, leadService),
		Campaign:      handlers.NewCampaignHandler(campaignService),
		Import:        handlers.NewImportHandler(importerService, excelService, leadService, batchRepo, leadRepo),
		Analytics:     handlers.NewAnalyticsHandler(analyticsService),
		Tracking:      handlers.NewTrackingHandler(trackingService),
		Webhook:       handlers.NewWebhookHandler(trackingService),
		WorkspaceAuth: middleware.NewWorkspaceAuthMiddleware(apiKeyService),
	}

	r := router.SetupRouter(h)

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

// ensureDefaultWorkspace bootstraps a workspace and prints its API key
// once, so a fresh deployment is usable without manual SQL
func ensureDefaultWorkspace(workspaceRepo *repository.WorkspaceRepository, apiKeyService *services.APIKeyService) error {
	count, err := workspaceRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	workspace := &models.Workspace{
		Name:        getEnv("DEFAULT_WORKSPACE_NAME", "Default Workspace"),
		SenderName:  getEnv("DEFAULT_SENDER_NAME", "Outreach Team"),
		SenderEmail: getEnv("DEFAULT_SENDER_EMAIL", "outreach@example.com"),
	}
	if err := workspaceRepo.Create(workspace); err != nil {
		return err
	}

	fullKey, _, err := apiKeyService.Generate(workspace.ID)
	if err != nil {
		return err
	}

	// Printed exactly once; the key cannot be recovered later
	logrus.Infof("Created default workspace %s", workspace.ID)
	logrus.Infof("API key (store this now, it will not be shown again): %s", fullKey)
	return nil
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, fmt.Sprintf("%d", defaultValue))
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}
