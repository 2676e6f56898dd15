package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/fieldtypes"
	"github.com/notionforge/backend/pkg/notion"
)

// Monitor defaults
const (
	DefaultTimeRange       = "30d"
	DefaultCleanupMaxAge   = 90
	analyticsSampleSize    = 10
	popularTemplatesShown  = 5
	selectConsolidateLimit = 10
	selectPenaltyLimit     = 15
)

// MonitorService serves health, analytics and maintenance actions
type MonitorService struct {
	api       ports.WorkspaceAPI
	resolver  *VersionResolver
	synthesis *SchemaSynthesis
	catalog   *TemplateCatalog
	listing   *ListingService
	eventBus  *EventBus
	parentID  string
	missing   []string
	now       func() time.Time
	logger    *zap.Logger
	actions   *ActionHandlerRegistry

	mu           sync.Mutex
	requests     int64
	failed       int64
	latencyTotal time.Duration
	deployments  map[string]int64
	unsubscribe  []func()
}

// NewMonitorService creates a MonitorService. missing lists the required
// settings that were absent at startup.
func NewMonitorService(
	api ports.WorkspaceAPI,
	resolver *VersionResolver,
	synthesis *SchemaSynthesis,
	catalog *TemplateCatalog,
	listing *ListingService,
	eventBus *EventBus,
	parentID string,
	missing []string,
	logger *zap.Logger,
) *MonitorService {
	s := &MonitorService{
		api:         api,
		resolver:    resolver,
		synthesis:   synthesis,
		catalog:     catalog,
		listing:     listing,
		eventBus:    eventBus,
		parentID:    parentID,
		missing:     missing,
		now:         time.Now,
		logger:      logger,
		actions:     NewActionHandlerRegistry(),
		deployments: make(map[string]int64),
	}
	if eventBus != nil {
		s.unsubscribe = append(s.unsubscribe,
			eventBus.Subscribe(events.RequestServed, s.onRequest),
			eventBus.Subscribe(events.TemplateDeployed, s.onDeploy),
		)
	}
	s.registerActions()
	return s
}

// Close detaches the monitor from the event bus
func (s *MonitorService) Close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
}

func (s *MonitorService) onRequest(_ context.Context, payload interface{}) error {
	p, ok := payload.(events.RequestPayload)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	s.latencyTotal += p.Latency
	if p.Status >= 400 {
		s.failed++
	}
	return nil
}

func (s *MonitorService) onDeploy(_ context.Context, payload interface{}) error {
	id, ok := payload.(string)
	if !ok || id == "" {
		return nil
	}
	s.mu.Lock()
	s.deployments[id]++
	s.mu.Unlock()
	return nil
}

// Actions exposes the action registry served by POST /api/monitor
func (s *MonitorService) Actions() *ActionHandlerRegistry {
	return s.actions
}

func (s *MonitorService) registerActions() {
	r := s.actions
	r.Register(constants.ActionHealthCheck, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return s.HealthCheck(ctx), nil
	})
	r.Register(constants.ActionDatabaseAnalytics, s.handleAnalytics)
	r.Register(constants.ActionOptimizeSchema, s.handleOptimize)
	r.Register(constants.ActionCleanupDatabases, s.handleCleanup)
	r.Register(constants.ActionBackupTemplates, func(_ context.Context, _ json.RawMessage) (interface{}, error) {
		return map[string]interface{}{
			"success": true,
			"backup":  s.BackupTemplates(),
			"message": "Templates backed up successfully",
		}, nil
	})
	r.Register(constants.ActionUsageStatistics, s.handleUsage)
	r.Register(constants.ActionAutoMaintenance, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		report := s.AutoMaintenance(ctx)
		return map[string]interface{}{
			"success":           true,
			"maintenanceReport": report,
			"message":           fmt.Sprintf("Maintenance completed: %d successful, %d failed", report.TasksCompleted, report.TasksFailed),
		}, nil
	})
}

func (s *MonitorService) stamp() string {
	return s.now().UTC().Format(isoMillis)
}

// HealthCheck checks the workspace API, the model, the configuration and
// the parent page
func (s *MonitorService) HealthCheck(ctx context.Context) models.HealthReport {
	report := models.HealthReport{
		Timestamp: s.stamp(),
		Status:    models.HealthHealthy,
		Checks: []models.HealthCheck{
			s.checkWorkspace(ctx),
			s.checkModel(ctx),
			s.checkEnvironment(),
			s.checkParentPage(ctx),
		},
		Warnings: []string{},
		Errors:   []string{},
	}

	for _, check := range report.Checks {
		switch check.Status {
		case models.CheckError:
			report.Status = models.HealthUnhealthy
			report.Errors = append(report.Errors, check.Message)
		case models.CheckWarning:
			if report.Status == models.HealthHealthy {
				report.Status = models.HealthDegraded
			}
			report.Warnings = append(report.Warnings, check.Message)
		}
	}

	s.logger.Info("health check", zap.String("status", report.Status), zap.Int("errors", len(report.Errors)))
	return report
}

func (s *MonitorService) checkWorkspace(ctx context.Context) models.HealthCheck {
	start := s.now()
	if _, err := s.api.Me(ctx); err != nil {
		return models.HealthCheck{
			Service: "notion_api",
			Status:  models.CheckError,
			Message: fmt.Sprintf("Notion API error: %s", upstreamMessage(err)),
			Error:   upstreamCode(err),
		}
	}
	return models.HealthCheck{
		Service:      "notion_api",
		Status:       models.CheckHealthy,
		Message:      "Notion API is accessible",
		ResponseTime: s.now().Sub(start).Milliseconds(),
	}
}

func (s *MonitorService) checkModel(ctx context.Context) models.HealthCheck {
	start := s.now()
	if s.synthesis == nil {
		return models.HealthCheck{Service: "gemini_api", Status: models.CheckError, Message: "Gemini API error: not configured"}
	}
	if _, err := s.synthesis.SelectModel(ctx); err != nil {
		return models.HealthCheck{
			Service: "gemini_api",
			Status:  models.CheckError,
			Message: fmt.Sprintf("Gemini API error: %s", err.Error()),
			Error:   upstreamCode(err),
		}
	}
	return models.HealthCheck{
		Service:      "gemini_api",
		Status:       models.CheckHealthy,
		Message:      "Gemini API is accessible",
		ResponseTime: s.now().Sub(start).Milliseconds(),
	}
}

func (s *MonitorService) checkEnvironment() models.HealthCheck {
	if len(s.missing) > 0 {
		return models.HealthCheck{
			Service: "environment",
			Status:  models.CheckError,
			Message: fmt.Sprintf("Missing environment variables: %s", strings.Join(s.missing, ", ")),
			Missing: append([]string(nil), s.missing...),
		}
	}
	return models.HealthCheck{
		Service: "environment",
		Status:  models.CheckHealthy,
		Message: "All required environment variables are set",
	}
}

func (s *MonitorService) checkParentPage(ctx context.Context) models.HealthCheck {
	if s.parentID == "" {
		return models.HealthCheck{
			Service: "database_access",
			Status:  models.CheckError,
			Message: fmt.Sprintf("Cannot access parent page: %s is not set", constants.EnvNotionParentPageID),
		}
	}
	if _, err := s.api.RetrievePage(ctx, s.parentID); err != nil {
		return models.HealthCheck{
			Service: "database_access",
			Status:  models.CheckError,
			Message: fmt.Sprintf("Cannot access parent page: %s", upstreamMessage(err)),
			Error:   upstreamCode(err),
		}
	}
	return models.HealthCheck{
		Service: "database_access",
		Status:  models.CheckHealthy,
		Message: "Parent page is accessible",
	}
}

func upstreamMessage(err error) string {
	var upstream *apperrors.UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return upstream.Message
	}
	return err.Error()
}

func upstreamCode(err error) string {
	var upstream *apperrors.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.UpstreamCode
	}
	return ""
}

type timeRangePayload struct {
	TimeRange string `json:"timeRange"`
}

func (s *MonitorService) handleAnalytics(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	p := timeRangePayload{TimeRange: DefaultTimeRange}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	analytics, err := s.DatabaseAnalytics(ctx, p.TimeRange)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"success":   true,
		"analytics": analytics,
		"timestamp": s.stamp(),
	}, nil
}

// parseDays reads the leading day count of a range such as "30d"
func parseDays(timeRange string, def int) int {
	digits := strings.TrimSpace(timeRange)
	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(digits[:end])
	if err != nil {
		return def
	}
	return n
}

func (s *MonitorService) parent() (string, error) {
	if s.parentID == "" {
		return "", apperrors.NewConfigurationError(constants.EnvNotionParentPageID)
	}
	return s.parentID, nil
}

// DatabaseAnalytics counts and categorizes the databases under the parent page.
// Only the first few databases are retrieved for categorization.
func (s *MonitorService) DatabaseAnalytics(ctx context.Context, timeRange string) (*models.DatabaseAnalytics, error) {
	parent, err := s.parent()
	if err != nil {
		return nil, err
	}
	blocks, _, err := childDatabases(ctx, s.api, parent, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -parseDays(timeRange, 30))
	analytics := &models.DatabaseAnalytics{
		TotalDatabases: len(blocks),
		DatabaseTypes:  map[string]int{},
		CreationTrend:  []models.TrendPoint{},
	}

	perDay := map[string]int{}
	for _, b := range blocks {
		created, err := time.Parse(time.RFC3339, b.CreatedTime)
		if err != nil || !created.After(cutoff) {
			continue
		}
		analytics.RecentDatabases++
		perDay[created.UTC().Format("2006-01-02")]++
	}
	for day, n := range perDay {
		analytics.CreationTrend = append(analytics.CreationTrend, models.TrendPoint{Date: day, Count: n})
	}
	sort.Slice(analytics.CreationTrend, func(i, j int) bool {
		return analytics.CreationTrend[i].Date < analytics.CreationTrend[j].Date
	})

	sample := blocks
	if len(sample) > analyticsSampleSize {
		sample = sample[:analyticsSampleSize]
	}
	for _, b := range sample {
		props, err := s.properties(ctx, b.ID)
		if err != nil {
			s.logger.Warn("failed to analyze database", zap.String("database", b.ID), zap.Error(err))
			continue
		}
		analytics.DatabaseTypes[categorize(props)]++
	}
	return analytics, nil
}

func (s *MonitorService) properties(ctx context.Context, databaseID string) (map[string]interface{}, error) {
	db, err := s.api.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	return s.resolver.SchemaProperties(ctx, db)
}

// categorize guesses the purpose of a database from its property names
func categorize(props map[string]interface{}) string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, strings.ToLower(name))
	}
	anyContains := func(words ...string) bool {
		for _, n := range names {
			for _, w := range words {
				if strings.Contains(n, w) {
					return true
				}
			}
		}
		return false
	}

	switch {
	case anyContains("project", "task"):
		return "project_management"
	case anyContains("customer", "contact"):
		return "crm"
	case anyContains("content", "article"):
		return "content"
	case anyContains("event", "meeting"):
		return "events"
	}
	return "other"
}

func (s *MonitorService) handleOptimize(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		DatabaseID string `json:"databaseId"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	return s.OptimizeSchema(ctx, p.DatabaseID)
}

// OptimizeSchema suggests schema improvements and scores the schema from 0 to 100
func (s *MonitorService) OptimizeSchema(ctx context.Context, databaseID string) (*models.SchemaOptimization, error) {
	if databaseID == "" {
		return nil, apperrors.NewValidationError("databaseId", "Database ID required")
	}
	db, err := s.api.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize schema: %w", err)
	}
	props, err := s.resolver.SchemaProperties(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize schema: %w", err)
	}

	title := notion.JoinPlainText(db.Title)
	if title == "" {
		title = constants.UntitledTitle
	}

	return &models.SchemaOptimization{
		Success:           true,
		Suggestions:       schemaSuggestions(props),
		DatabaseTitle:     title,
		OptimizationScore: optimizationScore(props),
		Timestamp:         s.stamp(),
	}, nil
}

func schemaSuggestions(props map[string]interface{}) []models.SchemaSuggestion {
	suggestions := []models.SchemaSuggestion{}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		kind, _ := fieldtypes.KindOf(props[name])
		switch {
		case kind == fieldtypes.KindSelect:
			if n := optionCount(props[name], kind); n > selectConsolidateLimit {
				suggestions = append(suggestions, models.SchemaSuggestion{
					Type:     "consolidate_options",
					Property: name,
					Message:  fmt.Sprintf("Consider consolidating %d select options", n),
					Impact:   "medium",
				})
			}
		case kind == fieldtypes.KindRichText && strings.Contains(strings.ToLower(name), "tag"):
			suggestions = append(suggestions, models.SchemaSuggestion{
				Type:     "convert_to_multiselect",
				Property: name,
				Message:  "Consider converting to multi-select for better filtering",
				Impact:   "high",
			})
		}
	}

	if _, ok := props["Status"]; !ok && len(props) > 0 {
		suggestions = append(suggestions, models.SchemaSuggestion{
			Type:    "add_status_property",
			Message: "Consider adding a Status property for workflow tracking",
			Impact:  "high",
		})
	}
	return suggestions
}

func optimizationScore(props map[string]interface{}) int {
	score := 100
	hasCreated, hasPeople := false, false
	for _, raw := range props {
		kind, _ := fieldtypes.KindOf(raw)
		switch kind {
		case fieldtypes.KindSelect:
			if optionCount(raw, kind) > selectPenaltyLimit {
				score -= 10
			}
		case fieldtypes.KindCreatedTime:
			hasCreated = true
		case fieldtypes.KindPeople:
			hasPeople = true
		}
	}
	if hasCreated {
		score += 5
	}
	if hasPeople {
		score += 5
	}
	if n := len(props); n >= 5 && n <= 15 {
		score += 10
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func optionCount(raw interface{}, kind fieldtypes.Kind) int {
	def, _ := raw.(map[string]interface{})
	cfg, _ := def[string(kind)].(map[string]interface{})
	options, _ := cfg["options"].([]interface{})
	return len(options)
}

func (s *MonitorService) handleCleanup(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	p := struct {
		DryRun *bool `json:"dryRun"`
		MaxAge *int  `json:"maxAge"`
	}{}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	dryRun, maxAge := true, DefaultCleanupMaxAge
	if p.DryRun != nil {
		dryRun = *p.DryRun
	}
	if p.MaxAge != nil {
		maxAge = *p.MaxAge
	}
	return s.CleanupDatabases(ctx, dryRun, maxAge)
}

// CleanupDatabases finds databases older than maxAge days that hold no
// records and, unless dryRun is set, archives them
func (s *MonitorService) CleanupDatabases(ctx context.Context, dryRun bool, maxAge int) (*models.CleanupResult, error) {
	parent, err := s.parent()
	if err != nil {
		return nil, err
	}
	blocks, _, err := childDatabases(ctx, s.api, parent, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to cleanup databases: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -maxAge)
	result := &models.CleanupResult{
		Success:    true,
		DryRun:     dryRun,
		Candidates: []models.CleanupCandidate{},
	}

	for _, b := range blocks {
		created, err := time.Parse(time.RFC3339, b.CreatedTime)
		if err != nil || !created.Before(cutoff) {
			continue
		}
		empty, err := s.isEmpty(ctx, b.ID)
		if err != nil {
			s.logger.Warn("failed to check database", zap.String("database", b.ID), zap.Error(err))
			continue
		}
		if !empty {
			continue
		}
		result.Candidates = append(result.Candidates, models.CleanupCandidate{
			ID:      b.ID,
			Title:   b.ChildDatabase.Title,
			Created: created.UTC().Format(isoMillis),
			Empty:   true,
			Reason:  "Old and empty database",
		})
	}
	result.CandidatesForCleanup = len(result.Candidates)

	if dryRun {
		result.Message = fmt.Sprintf("Found %d databases eligible for cleanup", result.CandidatesForCleanup)
		return result, nil
	}

	for _, c := range result.Candidates {
		if err := s.api.ArchiveBlock(ctx, c.ID); err != nil {
			s.logger.Error("failed to archive database", zap.String("database", c.ID), zap.Error(err))
			continue
		}
		result.Cleaned++
		s.emit(ctx, events.DatabaseArchived, events.DatabasePayload{ID: c.ID, Title: c.Title})
	}
	if result.Cleaned > 0 && s.listing != nil {
		s.listing.Invalidate()
	}
	result.Message = fmt.Sprintf("Cleaned up %d databases", result.Cleaned)
	return result, nil
}

func (s *MonitorService) isEmpty(ctx context.Context, databaseID string) (bool, error) {
	db, err := s.api.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return false, err
	}
	if db.ID == "" {
		db.ID = databaseID
	}
	target := TargetFor(db)
	q := notion.QueryRequest{PageSize: 1}

	var resp *notion.QueryResponse
	if target.Kind == models.TargetSource {
		resp, err = s.api.QueryDataSource(ctx, target.ID, q)
	} else {
		resp, err = s.api.QueryDatabase(ctx, target.ID, q)
	}
	if err != nil {
		return false, err
	}
	return len(resp.Results) == 0, nil
}

// BackupTemplates snapshots the whole catalog
func (s *MonitorService) BackupTemplates() models.TemplateBackup {
	export := s.catalog.Export(true)
	backup := models.TemplateBackup{
		Timestamp: s.stamp(),
		Version:   ExportVersion,
		Templates: export.Templates,
	}
	for _, t := range export.Templates {
		backup.Metadata.TotalTemplates++
		if t.Custom {
			backup.Metadata.CustomTemplates++
		} else {
			backup.Metadata.SystemTemplates++
		}
	}
	return backup
}

func (s *MonitorService) handleUsage(_ context.Context, payload json.RawMessage) (interface{}, error) {
	p := timeRangePayload{TimeRange: DefaultTimeRange}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"success":    true,
		"statistics": s.UsageStatistics(p.TimeRange),
	}, nil
}

// UsageStatistics reports counters collected since startup. The time range
// is echoed back; counters are not windowed.
func (s *MonitorService) UsageStatistics(timeRange string) models.UsageStatistics {
	counts := map[EventType]int64{}
	var uptime time.Duration
	if s.eventBus != nil {
		counts = s.eventBus.Counts()
		uptime = s.eventBus.Uptime()
	}

	s.mu.Lock()
	metrics := models.UsageMetrics{
		TotalRequests:  s.requests,
		FailedRequests: s.failed,
	}
	if s.requests > 0 {
		metrics.AverageResponseTime = (s.latencyTotal / time.Duration(s.requests)).Milliseconds()
	}
	popular := make([]models.TemplateUse, 0, len(s.deployments))
	for id, n := range s.deployments {
		popular = append(popular, models.TemplateUse{ID: id, Uses: n})
	}
	s.mu.Unlock()

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Uses != popular[j].Uses {
			return popular[i].Uses > popular[j].Uses
		}
		return popular[i].ID < popular[j].ID
	})
	if len(popular) > popularTemplatesShown {
		popular = popular[:popularTemplatesShown]
	}

	metrics.SuccessfulDeployments = counts[events.TemplateDeployed]
	metrics.FailedDeployments = counts[events.TemplateDeployFailed]
	metrics.DatabasesCreated = counts[events.DatabaseCreated]
	metrics.DatabasesArchived = counts[events.DatabaseArchived]
	metrics.SamplePagesCreated = counts[events.SamplePageCreated]
	metrics.RecordsCreated = counts[events.RecordCreated]
	metrics.RecordsUpdated = counts[events.RecordUpdated]
	metrics.RecordsArchived = counts[events.RecordArchived]
	metrics.SchemasGenerated = counts[events.SchemaGenerated]
	metrics.SchemaFallbacks = counts[events.SchemaFallback]
	metrics.ListingsServed = counts[events.ListingServed]
	metrics.WorkflowsTriggered = counts[events.WorkflowTriggered]
	metrics.TemplatesSaved = counts[events.TemplateSaved]
	metrics.TemplatesImported = counts[events.TemplateImported]
	metrics.TemplatesDeleted = counts[events.TemplateDeleted]
	metrics.PopularTemplates = popular
	metrics.UptimeSeconds = int64(uptime.Seconds())

	if timeRange == "" {
		timeRange = DefaultTimeRange
	}
	return models.UsageStatistics{
		TimeRange: timeRange,
		Timestamp: s.stamp(),
		Metrics:   metrics,
	}
}

// AutoMaintenance runs a health check, a dry-run cleanup and a template backup
func (s *MonitorService) AutoMaintenance(ctx context.Context) models.MaintenanceReport {
	report := models.MaintenanceReport{Timestamp: s.stamp()}

	add := func(task string, result interface{}, err error) {
		t := models.MaintenanceTask{Task: task, Status: "completed", Result: result}
		if err != nil {
			t.Status = "failed"
			t.Result = apperrors.ToResponse(err)
		}
		report.Tasks = append(report.Tasks, t)
	}

	add("health_check", s.HealthCheck(ctx), nil)
	cleanup, err := s.CleanupDatabases(ctx, true, DefaultCleanupMaxAge)
	add("cleanup_check", cleanup, err)
	add("template_backup", s.BackupTemplates(), nil)

	for _, t := range report.Tasks {
		if t.Status == "completed" {
			report.TasksCompleted++
		} else {
			report.TasksFailed++
		}
	}
	s.emit(ctx, events.MaintenanceRun, report.TasksFailed)
	s.logger.Info("maintenance finished",
		zap.Int("completed", report.TasksCompleted),
		zap.Int("failed", report.TasksFailed),
	)
	return report
}

func (s *MonitorService) emit(ctx context.Context, eventType EventType, payload interface{}) {
	if s.eventBus != nil {
		s.eventBus.Emit(ctx, eventType, payload)
	}
}
