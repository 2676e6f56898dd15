package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/internal/infrastructure/config"
	"github.com/notionforge/backend/pkg/expression"
	"github.com/notionforge/backend/pkg/llm"
	"github.com/notionforge/backend/pkg/notion"
)

// ServiceManager holds all services with their dependencies wired
type ServiceManager struct {
	EventBus     *EventBus
	Resolver     *VersionResolver
	Records      *RecordGateway
	Listing      *ListingService
	Synthesis    *SchemaSynthesis
	Catalog      *TemplateCatalog
	Provisioning *ProvisioningService
	Scheduler    *SchedulerService
	Automation   *AutomationService
	Monitor      *MonitorService

	schedulerDone chan struct{}
}

// NewServiceManager creates a new service manager with all dependencies wired.
// A missing GEMINI_API_KEY leaves synthesis without a generator; its calls
// then fail with a configuration error.
func NewServiceManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) *ServiceManager {
	api := notion.NewClient(cfg.NotionBaseURL, cfg.NotionAPIKey, cfg.NotionAPIVersion)

	var generator llm.Generator
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGenAIClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("generative model unavailable", zap.Error(err))
		} else {
			generator = client
		}
	}

	return newServiceManager(api, generator, cfg, logger)
}

func newServiceManager(api ports.WorkspaceAPI, generator llm.Generator, cfg *config.Config, logger *zap.Logger) *ServiceManager {
	sm := &ServiceManager{}

	// Initialize services in dependency order
	sm.EventBus = NewEventBus(logger)
	sm.Resolver = NewVersionResolver(api)
	sm.Records = NewRecordGateway(api, sm.Resolver, sm.EventBus, cfg.NotionDatabaseID, logger)
	sm.Listing = NewListingService(api, sm.EventBus, cfg.ListingCacheTTL, cfg.EnrichBatchSize, nil, logger)
	sm.Synthesis = NewSchemaSynthesis(generator, llm.DefaultRetryPolicy(), sm.EventBus, logger)
	sm.Catalog = NewTemplateCatalog(sm.EventBus, logger)
	sm.Provisioning = NewProvisioningService(api, sm.Resolver, sm.Catalog, sm.Listing, sm.EventBus, cfg.NotionParentPageID, logger)
	sm.Scheduler = NewSchedulerService(sm.Provisioning, logger)
	sm.Automation = NewAutomationService(sm.Catalog, sm.Provisioning, sm.Synthesis, sm.Scheduler, expression.NewEngine(), sm.EventBus, logger)
	sm.Monitor = NewMonitorService(api, sm.Resolver, sm.Synthesis, sm.Catalog, sm.Listing, sm.EventBus, cfg.NotionParentPageID, cfg.Missing(), logger)

	return sm
}

// StartScheduler runs scheduled workflows in the background and returns at once
func (sm *ServiceManager) StartScheduler() {
	if sm.schedulerDone != nil {
		return
	}
	done := make(chan struct{})
	sm.schedulerDone = done
	go func() {
		defer close(done)
		sm.Scheduler.Start()
	}()
}

// StopScheduler stops the scheduler, waits for its loop to exit and detaches
// the monitor from the bus
func (sm *ServiceManager) StopScheduler() {
	sm.Scheduler.Stop()
	if sm.schedulerDone != nil {
		<-sm.schedulerDone
	}
	sm.Monitor.Close()
}
