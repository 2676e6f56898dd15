package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/internal/interfaces/middleware"
	"github.com/notionforge/backend/pkg/constants"
)

// Handlers groups everything the router serves
type Handlers struct {
	Records    *RecordHandler
	Listing    *ListingHandler
	Synthesis  *SynthesisHandler
	Databases  *DatabaseHandler
	Automation *ActionHandler
	Monitor    *ActionHandler
}

// NewRouter builds the gin engine. Routes that need a credential refuse
// with a configuration error while it is unset.
func NewRouter(h Handlers, has middleware.SettingLookup, bus ports.EventPublisher, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Cors())
	router.Use(middleware.RequestLogger(logger, bus))
	router.NoMethod(MethodNotAllowed)
	router.NoRoute(NotFound)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	requireNotion := middleware.RequireSettings(has, constants.EnvNotionAPIKey)
	requireListing := middleware.RequireSettings(has, constants.EnvNotionAPIKey, constants.EnvNotionParentPageID)
	requireGemini := middleware.RequireSettings(has, constants.EnvGeminiAPIKey)

	api := router.Group("/api")
	{
		api.GET("/databases", requireListing, h.Listing.List)
		api.POST("/databases", requireNotion, h.Databases.Create)
		api.GET("/databases/multi-source", requireNotion, h.Databases.TestColumns)
		api.POST("/databases/multi-source", requireNotion, h.Databases.CreateMultiSource)

		records := api.Group("/records")
		records.Use(requireNotion)
		{
			records.GET("", h.Records.Get)
			records.POST("", h.Records.Create)
			records.PUT("", h.Records.Update)
			records.PATCH("", h.Records.Update)
			records.DELETE("", h.Records.Delete)
		}

		api.POST("/chat", requireGemini, h.Synthesis.Chat)
		api.POST("/schemas", requireGemini, h.Synthesis.Generate)

		// These report missing settings per action
		api.POST("/automation", h.Automation.Handle)
		api.POST("/monitor", h.Monitor.Handle)
	}

	return router
}
