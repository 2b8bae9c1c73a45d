package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/leadforgehq/outreach-backend/internal/handlers"
	"github.com/leadforgehq/outreach-backend/internal/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Lead      *handlers.LeadHandler
	Segment   *handlers.SegmentHandler
	Campaign  *handlers.CampaignHandler
	Import    *handlers.ImportHandler
	Analytics *handlers.AnalyticsHandler
	Tracking  *handlers.TrackingHandler
	Webhook   *handlers.WebhookHandler

	WorkspaceAuth *middleware.WorkspaceAuthMiddleware
}

// SetupRouter configures the Gin router with the full HTTP surface
func SetupRouter(h *Handlers) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create a new router
	r := gin.New()

	// Use middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public tracking endpoints hit by email clients; no auth possible
	tracking := r.Group("/t")
	{
		tracking.GET("/o/:token", h.Tracking.TrackOpen)
		tracking.GET("/c/:token", h.Tracking.TrackClick)
	}

	// Provider webhooks authenticate with a shared secret header
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/email-events", h.Webhook.HandleProviderEvent)
	}

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Workspace-scoped routes
		protected := api.Group("")
		protected.Use(h.WorkspaceAuth.RequireWorkspace())
		{
			// Lead routes
			leads := protected.Group("/leads")
			{
				leads.POST("", h.Lead.CreateLead)
				leads.GET("", h.Lead.ListLeads)
				leads.GET("/export", h.Import.ExportLeads)
				leads.GET("/:id", h.Lead.GetLead)
				leads.PUT("/:id", h.Lead.UpdateLead)
				leads.DELETE("/:id", h.Lead.DeleteLead)
			}

			// Segment routes
			segments := protected.Group("/segments")
			{
				segments.POST("", h.Segment.CreateSegment)
				segments.GET("", h.Segment.ListSegments)
				segments.GET("/:id", h.Segment.GetSegment)
				segments.GET("/:id/leads", h.Segment.ListSegmentLeads)
				segments.PUT("/:id", h.Segment.UpdateSegment)
				segments.DELETE("/:id", h.Segment.DeleteSegment)
			}

			// Import routes
			imports := protected.Group("/imports")
			{
				imports.POST("/preview", h.Import.PreviewImport)
				imports.POST("/csv", h.Import.ImportCSV)
				imports.POST("/xlsx", h.Import.ImportXLSX)
				imports.GET("", h.Import.ListImportBatches)
				imports.GET("/:id", h.Import.GetImportBatch)
			}

			// Campaign routes
			campaigns := protected.Group("/campaigns")
			{
				campaigns.POST("", h.Campaign.CreateCampaign)
				campaigns.GET("", h.Campaign.ListCampaigns)
				campaigns.GET("/:id", h.Campaign.GetCampaign)
				campaigns.PUT("/:id", h.Campaign.UpdateCampaign)
				campaigns.DELETE("/:id", h.Campaign.DeleteCampaign)
				campaigns.POST("/:id/generate", h.Campaign.GenerateContent)
				campaigns.POST("/:id/launch", h.Campaign.LaunchCampaign)
				campaigns.POST("/:id/pause", h.Campaign.PauseCampaign)
				campaigns.POST("/:id/resume", h.Campaign.ResumeCampaign)
				campaigns.POST("/:id/duplicate", h.Campaign.DuplicateCampaign)
				campaigns.POST("/:id/preview", h.Campaign.PreviewCampaign)
				campaigns.GET("/:id/messages", h.Campaign.ListCampaignMessages)
				campaigns.GET("/:id/stats", h.Analytics.GetCampaignStats)
			}

			// Analytics routes
			analytics := protected.Group("/analytics")
			{
				analytics.GET("/overview", h.Analytics.GetOverview)
			}
		}
	}

	return r
}
