package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/application/services"
	"github.com/notionforge/backend/internal/bootstrap"
	"github.com/notionforge/backend/internal/infrastructure/config"
	"github.com/notionforge/backend/internal/interfaces/rest"
	"github.com/notionforge/backend/pkg/versioning"
)

func main() {
	cfg := config.Load()

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.EnvFile != "" {
		logger.Info("loaded environment file", zap.String("path", cfg.EnvFile))
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		// Routes needing these answer with a configuration error
		logger.Warn("required configuration missing", zap.Strings("missing", missing))
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(context.Background(), cfg, logger)
	logger.Info("service manager initialized")

	if err := bootstrap.InitializeTemplates(svcMgr.Catalog, logger); err != nil {
		logger.Fatal("failed to load system templates", zap.Error(err))
	}
	if err := bootstrap.InitializeWorkflows(svcMgr.Automation, logger); err != nil {
		logger.Warn("failed to load predefined workflows", zap.Error(err))
	}

	router := rest.NewRouter(rest.Handlers{
		Records:    rest.NewRecordHandler(svcMgr.Records, logger),
		Listing:    rest.NewListingHandler(svcMgr.Listing, cfg.NotionParentPageID, logger),
		Synthesis:  rest.NewSynthesisHandler(svcMgr.Synthesis, svcMgr.Catalog, logger),
		Databases:  rest.NewDatabaseHandler(svcMgr.Provisioning, logger),
		Automation: rest.NewActionHandler(svcMgr.Automation.Actions(), logger),
		Monitor:    rest.NewActionHandler(svcMgr.Monitor.Actions(), logger),
	}, cfg.Has, svcMgr.EventBus, logger)

	// Start scheduled workflow executor
	svcMgr.StartScheduler()
	logger.Info("scheduler started")

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: versioning.VersionMiddleware(router),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()
	logger.Info("server started",
		zap.String("addr", cfg.Addr()),
		zap.String("notion_version", cfg.NotionAPIVersion),
	)

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	svcMgr.StopScheduler()
	logger.Info("scheduler stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
