package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/schema"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/expression"
	"github.com/notionforge/backend/pkg/utils"
)

// WorkflowActionCreateDatabase is the only action a workflow can perform
const WorkflowActionCreateDatabase = "create_database"

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// AutomationService serves template and workflow actions
type AutomationService struct {
	catalog      *TemplateCatalog
	provisioning *ProvisioningService
	synthesis    *SchemaSynthesis
	scheduler    *SchedulerService
	conditions   *expression.Engine
	eventBus     *EventBus
	logger       *zap.Logger

	workflows []models.Workflow
	actions   *ActionHandlerRegistry
}

// NewAutomationService creates a new AutomationService
func NewAutomationService(
	catalog *TemplateCatalog,
	provisioning *ProvisioningService,
	synthesis *SchemaSynthesis,
	scheduler *SchedulerService,
	conditions *expression.Engine,
	eventBus *EventBus,
	logger *zap.Logger,
) *AutomationService {
	s := &AutomationService{
		catalog:      catalog,
		provisioning: provisioning,
		synthesis:    synthesis,
		scheduler:    scheduler,
		conditions:   conditions,
		eventBus:     eventBus,
		logger:       logger,
		actions:      NewActionHandlerRegistry(),
	}
	s.registerActions()
	return s
}

// SeedWorkflows replaces the predefined workflows
func (s *AutomationService) SeedWorkflows(workflows []models.Workflow) {
	s.workflows = append([]models.Workflow(nil), workflows...)
}

// Workflows returns the predefined workflows in seed order
func (s *AutomationService) Workflows() []models.Workflow {
	return append([]models.Workflow(nil), s.workflows...)
}

func (s *AutomationService) workflow(id string) (models.Workflow, bool) {
	for _, wf := range s.workflows {
		if wf.ID == id {
			return wf, true
		}
	}
	return models.Workflow{}, false
}

// Actions exposes the action registry served by POST /api/automation
func (s *AutomationService) Actions() *ActionHandlerRegistry {
	return s.actions
}

func (s *AutomationService) registerActions() {
	r := s.actions
	r.Register(constants.ActionListTemplates, s.handleListTemplates)
	r.Register(constants.ActionGetTemplateSchema, s.handleTemplateSchema)
	r.Register(constants.ActionDeployTemplate, s.handleDeploy)
	r.Register(constants.ActionCreateWorkflow, s.handleCreateWorkflow)
	r.Register(constants.ActionTriggerWorkflow, s.handleTriggerWorkflow)
	r.Register(constants.ActionSmartSuggest, s.handleSmartSuggest)
	r.Register(constants.ActionBulkCreate, s.handleBulkCreate)
	r.Register(constants.ActionSaveTemplate, s.handleSaveTemplate)
	r.Register(constants.ActionUpdateTemplate, s.handleUpdateTemplate)
	r.Register(constants.ActionDeleteTemplate, s.handleDeleteTemplate)
	r.Register(constants.ActionDuplicateTemplate, s.handleDuplicateTemplate)
	r.Register(constants.ActionExportTemplates, s.handleExport)
	r.Register(constants.ActionImportTemplates, s.handleImport)
}

// TemplateList is the list_templates response
type TemplateList struct {
	Templates  []models.TemplateSummary `json:"templates"`
	Workflows  []models.Workflow        `json:"workflows"`
	Configured []models.WorkflowConfig  `json:"configuredWorkflows"`
}

// ListTemplates returns the catalog together with the known workflows
func (s *AutomationService) ListTemplates() TemplateList {
	return TemplateList{
		Templates:  s.catalog.List(),
		Workflows:  s.Workflows(),
		Configured: s.scheduler.Jobs(),
	}
}

func (s *AutomationService) handleListTemplates(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return s.ListTemplates(), nil
}

type templateIDPayload struct {
	TemplateID string `json:"templateId"`
}

func (s *AutomationService) handleTemplateSchema(_ context.Context, payload json.RawMessage) (interface{}, error) {
	var p templateIDPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if p.TemplateID == "" {
		return nil, apperrors.NewValidationError("templateId", "Template not found")
	}
	detail, ms, err := s.catalog.Schema(p.TemplateID)
	if err != nil {
		return nil, err
	}
	return struct {
		Template models.TemplateDetail    `json:"template"`
		Schema   schema.MultiSourceSchema `json:"schema"`
	}{detail, ms}, nil
}

func (s *AutomationService) handleDeploy(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req models.DeployRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	deployed, err := s.provisioning.DeployTemplate(ctx, req)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"database": deployed}, nil
}

// CreateWorkflowRequest configures a workflow instance
type CreateWorkflowRequest struct {
	WorkflowID     string                 `json:"workflowId"`
	CustomSchedule string                 `json:"customSchedule,omitempty"`
	Timezone       string                 `json:"timezone,omitempty"`
	TemplateID     string                 `json:"templateId,omitempty"`
	Customizations *models.Customizations `json:"customizations,omitempty"`
}

// CreateWorkflow configures a workflow and registers it with the scheduler.
// Schedule and template default to the predefined workflow of the same id.
func (s *AutomationService) CreateWorkflow(req CreateWorkflowRequest) (models.WorkflowConfig, error) {
	cfg := models.WorkflowConfig{
		ID:             req.WorkflowID,
		Schedule:       req.CustomSchedule,
		Timezone:       req.Timezone,
		Template:       req.TemplateID,
		Customizations: req.Customizations,
	}
	if cfg.ID == "" {
		cfg.ID = utils.GenerateID()
	}
	if wf, ok := s.workflow(cfg.ID); ok {
		if cfg.Schedule == "" {
			cfg.Schedule = wf.Schedule
		}
		if cfg.Template == "" {
			cfg.Template = wf.Template
		}
	}
	if cfg.Template == "" {
		return cfg, apperrors.NewValidationError("templateId", "Template is required")
	}
	if !s.catalog.Exists(cfg.Template) {
		return cfg, apperrors.NewValidationError("templateId", fmt.Sprintf("Unknown template %q", cfg.Template))
	}
	return s.scheduler.Register(cfg)
}

func (s *AutomationService) handleCreateWorkflow(_ context.Context, payload json.RawMessage) (interface{}, error) {
	var req CreateWorkflowRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	cfg, err := s.CreateWorkflow(req)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"workflow": cfg}, nil
}

// TriggerRequest fires a workflow with an event
type TriggerRequest struct {
	WorkflowID   string                 `json:"workflowId"`
	Event        map[string]interface{} `json:"event,omitempty"`
	ParentPageID string                 `json:"parentPageId,omitempty"`
}

// TriggerWorkflow deploys the workflow's template when its condition holds
// for the event. Workflows without a condition always fire.
func (s *AutomationService) TriggerWorkflow(ctx context.Context, req TriggerRequest) (*models.TriggerResult, error) {
	if req.WorkflowID == "" {
		return nil, apperrors.NewValidationError("workflowId", "Workflow ID required")
	}

	wf, predefined := s.workflow(req.WorkflowID)
	cfg, configured := s.scheduler.Job(req.WorkflowID)
	if !predefined && !configured {
		return nil, apperrors.NewNotFoundError("workflow", req.WorkflowID)
	}
	if predefined && wf.Action != "" && wf.Action != WorkflowActionCreateDatabase {
		return nil, apperrors.NewValidationError("action", fmt.Sprintf("unsupported workflow action %q", wf.Action))
	}

	deploy := models.DeployRequest{
		TemplateID:        wf.Template,
		IncludeSampleData: true,
		ParentPageID:      req.ParentPageID,
	}
	if configured {
		deploy.TemplateID = cfg.Template
		deploy.Customizations = cfg.Customizations
	}

	result := &models.TriggerResult{Success: true, WorkflowID: req.WorkflowID}
	if wf.Condition != "" {
		holds, err := s.conditions.EvaluateCondition(wf.Condition, conditionEnv(req.Event))
		if err != nil {
			return nil, apperrors.NewValidationError("condition", err.Error())
		}
		if !holds {
			result.Reason = "Condition not met"
			s.logger.Info("workflow condition not met",
				zap.String("workflow", req.WorkflowID),
				zap.String("condition", wf.Condition),
			)
			return result, nil
		}
	}

	deployed, err := s.provisioning.DeployTemplate(ctx, deploy)
	if err != nil {
		return nil, err
	}
	result.Triggered = true
	result.Database = deployed
	s.emit(ctx, events.WorkflowTriggered, req.WorkflowID)
	return result, nil
}

// conditionEnv exposes the event fields as variables. The event type,
// when present, is also a variable set to true.
func conditionEnv(event map[string]interface{}) map[string]interface{} {
	env := make(map[string]interface{}, len(event)+2)
	for k, v := range event {
		env[k] = v
	}
	if t, ok := event["type"].(string); ok && t != "" {
		env[t] = true
	}
	env["event"] = event
	return env
}

func (s *AutomationService) handleTriggerWorkflow(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req TriggerRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	return s.TriggerWorkflow(ctx, req)
}

func (s *AutomationService) handleSmartSuggest(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		UserInput string `json:"userInput"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.UserInput) == "" {
		return nil, apperrors.NewValidationError("userInput", "User input required")
	}
	return s.synthesis.SmartSuggest(ctx, p.UserInput, s.catalog.List())
}

func (s *AutomationService) handleBulkCreate(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Templates    []models.DeployRequest `json:"templates"`
		ParentPageID string                 `json:"parentPageId"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	return s.provisioning.BulkCreate(ctx, p.Templates, p.ParentPageID), nil
}

// templateReply is the success body of the catalog editing actions
type templateReply struct {
	Success    bool             `json:"success"`
	TemplateID string           `json:"templateId,omitempty"`
	Template   *models.Template `json:"template,omitempty"`
	Message    string           `json:"message"`
}

func (s *AutomationService) handleSaveTemplate(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		TemplateID string           `json:"templateId"`
		Template   *models.Template `json:"template"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if err := s.catalog.Save(ctx, p.TemplateID, p.Template); err != nil {
		return nil, err
	}
	return templateReply{Success: true, TemplateID: p.TemplateID, Message: "Template saved successfully"}, nil
}

func (s *AutomationService) handleUpdateTemplate(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		TemplateID string                 `json:"templateId"`
		Updates    map[string]interface{} `json:"updates"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	updated, err := s.catalog.Update(ctx, p.TemplateID, p.Updates)
	if err != nil {
		return nil, err
	}
	return templateReply{Success: true, TemplateID: p.TemplateID, Template: updated, Message: "Template updated successfully"}, nil
}

func (s *AutomationService) handleDeleteTemplate(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p templateIDPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if err := s.catalog.Delete(ctx, p.TemplateID); err != nil {
		return nil, err
	}
	return templateReply{Success: true, Message: "Template deleted successfully"}, nil
}

func (s *AutomationService) handleDuplicateTemplate(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		TemplateID     string                 `json:"templateId"`
		NewTemplateID  string                 `json:"newTemplateId"`
		Customizations *models.Customizations `json:"customizations"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	dup, err := s.catalog.Duplicate(ctx, p.TemplateID, p.NewTemplateID, p.Customizations)
	if err != nil {
		return nil, err
	}
	return templateReply{Success: true, TemplateID: p.NewTemplateID, Template: dup, Message: "Template duplicated successfully"}, nil
}

func (s *AutomationService) handleExport(_ context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		IncludeSystem bool   `json:"includeSystem"`
		Format        string `json:"format"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	format := strings.ToLower(p.Format)
	switch format {
	case "", FormatJSON:
		format = FormatJSON
	case FormatYAML, "yml":
		format = FormatYAML
	default:
		return nil, apperrors.NewValidationError("format", fmt.Sprintf("unsupported export format %q", p.Format))
	}
	return &Download{
		Filename: "notion-templates." + format,
		Format:   format,
		Body:     s.catalog.Export(p.IncludeSystem),
	}, nil
}

func (s *AutomationService) handleImport(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Templates         json.RawMessage `json:"templates"`
		Overwrite         bool            `json:"overwrite"`
		DuplicateIfExists bool            `json:"duplicateIfExists"`
	}
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	var templates map[string]interface{}
	if len(p.Templates) == 0 || json.Unmarshal(p.Templates, &templates) != nil || templates == nil {
		return nil, apperrors.NewValidationError("templates", "Invalid templates format")
	}

	result := s.catalog.Import(ctx, templates, p.Overwrite, p.DuplicateIfExists)
	return map[string]interface{}{
		"success": true,
		"results": result,
		"message": fmt.Sprintf("Imported %d templates", len(result.Imported)),
	}, nil
}

func (s *AutomationService) emit(ctx context.Context, eventType EventType, payload interface{}) {
	if s.eventBus != nil {
		s.eventBus.Emit(ctx, eventType, payload)
	}
}
