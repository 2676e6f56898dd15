package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/expression"
	"github.com/notionforge/backend/pkg/notion"
	"github.com/notionforge/backend/pkg/utils"
)

var testWorkflows = []models.Workflow{
	{
		ID:       "recurring_projects",
		Name:     "Monthly Project Setup",
		Trigger:  constants.TriggerSchedule,
		Schedule: "0 0 1 * *",
		Action:   WorkflowActionCreateDatabase,
		Template: "project_management",
	},
	{
		ID:        "event_followup",
		Name:      "Event Follow-up Database",
		Trigger:   constants.TriggerWebhook,
		Condition: "event_completed",
		Action:    WorkflowActionCreateDatabase,
		Template:  "project_management",
	},
}

func newTestAutomation(api *MockWorkspace, gen *fakeGenerator) (*AutomationService, *EventBus) {
	prov, bus := newTestProvisioning(api, "page-1")
	scheduler, _ := newTestScheduler(prov)
	synthesis := newTestSynthesis(gen, &sleepRecorder{})
	svc := NewAutomationService(prov.catalog, prov, synthesis, scheduler, expression.NewEngine(), bus, zap.NewNop())
	svc.SeedWorkflows(testWorkflows)
	return svc, bus
}

func dispatch(t *testing.T, svc *AutomationService, action string, payload interface{}) (interface{}, error) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return svc.Actions().Dispatch(context.Background(), action, raw)
}

func TestAutomation_InvalidAction(t *testing.T) {
	svc, _ := newTestAutomation(newMockWorkspace(), &fakeGenerator{})

	_, err := svc.Actions().Dispatch(context.Background(), "launch_rocket", nil)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAction))
	assert.Equal(t, 400, apperrors.GetHTTPStatus(err))

	assert.Len(t, svc.Actions().Types(), 13)
	assert.True(t, svc.Actions().Has(constants.ActionImportTemplates))
}

func TestAutomation_ListAndSchema(t *testing.T) {
	svc, _ := newTestAutomation(newMockWorkspace(), &fakeGenerator{})

	out, err := dispatch(t, svc, constants.ActionListTemplates, nil)
	require.NoError(t, err)
	list := out.(TemplateList)
	require.Len(t, list.Templates, 1)
	require.Len(t, list.Workflows, 2)
	assert.Equal(t, "recurring_projects", list.Workflows[0].ID)
	assert.Empty(t, list.Configured)

	out, err = dispatch(t, svc, constants.ActionGetTemplateSchema, map[string]string{"templateId": "project_management"})
	require.NoError(t, err)
	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"dataSources":[{"name":"Project Management Hub"`)

	_, err = dispatch(t, svc, constants.ActionGetTemplateSchema, map[string]string{"templateId": "nope"})
	assert.True(t, apperrors.IsNotFound(err))
	_, err = dispatch(t, svc, constants.ActionGetTemplateSchema, map[string]string{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Actions().Dispatch(context.Background(), constants.ActionGetTemplateSchema, json.RawMessage(`[1,2`))
	assert.True(t, apperrors.IsValidation(err))
}

func TestAutomation_CreateWorkflow(t *testing.T) {
	svc, _ := newTestAutomation(newMockWorkspace(), &fakeGenerator{})

	cfg, err := svc.CreateWorkflow(CreateWorkflowRequest{WorkflowID: "recurring_projects"})
	require.NoError(t, err)
	assert.Equal(t, "0 0 1 * *", cfg.Schedule)
	assert.Equal(t, "project_management", cfg.Template)
	assert.Equal(t, "2025-10-01T00:00:00.000Z", cfg.NextRun)
	assert.Equal(t, "configured", cfg.Status)

	cfg, err = svc.CreateWorkflow(CreateWorkflowRequest{WorkflowID: "event_followup"})
	require.NoError(t, err)
	assert.Equal(t, "Manual trigger required", cfg.NextRun)

	cfg, err = svc.CreateWorkflow(CreateWorkflowRequest{CustomSchedule: "30 8 * * 1", TemplateID: "project_management"})
	require.NoError(t, err)
	assert.True(t, utils.IsValidUUID(cfg.ID))
	assert.Equal(t, "2025-09-08T08:30:00.000Z", cfg.NextRun)

	_, err = svc.CreateWorkflow(CreateWorkflowRequest{WorkflowID: "recurring_projects", CustomSchedule: "soon"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateWorkflow(CreateWorkflowRequest{WorkflowID: "x", TemplateID: "missing"})
	assert.True(t, apperrors.IsValidation(err))

	out, err := dispatch(t, svc, constants.ActionListTemplates, nil)
	require.NoError(t, err)
	assert.Len(t, out.(TemplateList).Configured, 3)
}

func TestAutomation_TriggerWorkflow(t *testing.T) {
	api := newMockWorkspace()
	api.On("CreateDatabase", mock.Anything, mock.Anything).
		Return(&notion.Database{ID: "db-followup", URL: "https://notion.so/db-followup"}, nil).Once()
	api.On("CreatePage", mock.Anything, models.ParentRef{DatabaseID: "db-followup"}, mock.Anything).
		Return(map[string]interface{}{"id": "page-1"}, nil).Once()
	svc, bus := newTestAutomation(api, &fakeGenerator{})
	ctx := context.Background()

	skipped, err := svc.TriggerWorkflow(ctx, TriggerRequest{
		WorkflowID: "event_followup",
		Event:      map[string]interface{}{"type": "event_started"},
	})
	require.NoError(t, err)
	assert.False(t, skipped.Triggered)
	assert.Equal(t, "Condition not met", skipped.Reason)
	api.AssertNotCalled(t, "CreateDatabase", mock.Anything, mock.Anything)

	fired, err := svc.TriggerWorkflow(ctx, TriggerRequest{
		WorkflowID: "event_followup",
		Event:      map[string]interface{}{"type": "event_completed", "name": "Launch"},
	})
	require.NoError(t, err)
	assert.True(t, fired.Triggered)
	require.NotNil(t, fired.Database)
	assert.Equal(t, "db-followup", fired.Database.ID)
	assert.True(t, fired.Database.SampleDataAdded)
	assert.Equal(t, int64(1), bus.Counts()[events.WorkflowTriggered])

	_, err = svc.TriggerWorkflow(ctx, TriggerRequest{WorkflowID: "unknown"})
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.TriggerWorkflow(ctx, TriggerRequest{})
	assert.True(t, apperrors.IsValidation(err))
	api.AssertExpectations(t)
}

func TestAutomation_SmartSuggest(t *testing.T) {
	gen := &fakeGenerator{replies: []string{
		`Here you go: {"suggestedTemplate":"project_management","confidence":0.9,"reasoning":"tasks"}`,
	}}
	svc, _ := newTestAutomation(newMockWorkspace(), gen)

	out, err := dispatch(t, svc, constants.ActionSmartSuggest, map[string]string{"userInput": "track my sprint tasks"})
	require.NoError(t, err)
	suggestion := out.(*Suggestion)
	assert.Equal(t, "project_management", suggestion.SuggestedTemplate)
	assert.Contains(t, gen.prompts[0], "- project_management: Project Management Hub")

	_, err = dispatch(t, svc, constants.ActionSmartSuggest, map[string]string{"userInput": "  "})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAutomation_TemplateEditing(t *testing.T) {
	svc, _ := newTestAutomation(newMockWorkspace(), &fakeGenerator{})

	out, err := dispatch(t, svc, constants.ActionSaveTemplate, map[string]interface{}{
		"templateId": "reading_list",
		"template":   customTemplate("Reading List"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Template saved successfully", out.(templateReply).Message)

	_, err = dispatch(t, svc, constants.ActionSaveTemplate, map[string]interface{}{"templateId": "bad"})
	assert.True(t, apperrors.IsValidation(err))

	out, err = dispatch(t, svc, constants.ActionUpdateTemplate, map[string]interface{}{
		"templateId": "reading_list",
		"updates":    map[string]interface{}{"title": "Books"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Books", out.(templateReply).Template.Title)

	out, err = dispatch(t, svc, constants.ActionDuplicateTemplate, map[string]interface{}{
		"templateId":    "reading_list",
		"newTemplateId": "reading_list_2",
	})
	require.NoError(t, err)
	dup := out.(templateReply)
	assert.Equal(t, "reading_list_2", dup.TemplateID)
	assert.Equal(t, "Books (Copy)", dup.Template.Title)

	_, err = dispatch(t, svc, constants.ActionDeleteTemplate, map[string]string{"templateId": "project_management"})
	assert.Equal(t, 403, apperrors.GetHTTPStatus(err))

	out, err = dispatch(t, svc, constants.ActionDeleteTemplate, map[string]string{"templateId": "reading_list_2"})
	require.NoError(t, err)
	assert.Equal(t, "Template deleted successfully", out.(templateReply).Message)
}

func TestAutomation_ExportImport(t *testing.T) {
	svc, _ := newTestAutomation(newMockWorkspace(), &fakeGenerator{})

	out, err := dispatch(t, svc, constants.ActionExportTemplates, map[string]interface{}{"includeSystem": true})
	require.NoError(t, err)
	download := out.(*Download)
	assert.Equal(t, "notion-templates.json", download.Filename)
	assert.Equal(t, FormatJSON, download.Format)
	assert.Len(t, download.Body.(models.TemplateExport).Templates, 1)

	out, err = dispatch(t, svc, constants.ActionExportTemplates, map[string]interface{}{"format": "YAML"})
	require.NoError(t, err)
	assert.Equal(t, "notion-templates.yaml", out.(*Download).Filename)

	_, err = dispatch(t, svc, constants.ActionExportTemplates, map[string]interface{}{"format": "xml"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = dispatch(t, svc, constants.ActionImportTemplates, map[string]interface{}{"templates": "nope"})
	assert.True(t, apperrors.IsValidation(err))
	_, err = dispatch(t, svc, constants.ActionImportTemplates, map[string]interface{}{})
	assert.True(t, apperrors.IsValidation(err))

	out, err = dispatch(t, svc, constants.ActionImportTemplates, map[string]interface{}{
		"templates": map[string]interface{}{
			"habits": map[string]interface{}{
				"title":      "Habits",
				"properties": map[string]interface{}{"Habit": map[string]interface{}{"title": map[string]interface{}{}}},
			},
		},
	})
	require.NoError(t, err)
	reply := out.(map[string]interface{})
	assert.Equal(t, "Imported 1 templates", reply["message"])
	assert.Equal(t, []string{"habits"}, reply["results"].(models.ImportResult).Imported)
}

func TestAutomation_DeployAndBulk(t *testing.T) {
	api := newMockWorkspace()
	api.On("CreateDatabase", mock.Anything, mock.Anything).
		Return(&notion.Database{ID: "db-pm", URL: "https://notion.so/db-pm"}, nil)
	svc, _ := newTestAutomation(api, &fakeGenerator{})

	out, err := dispatch(t, svc, constants.ActionDeployTemplate, map[string]interface{}{"templateId": "project_management"})
	require.NoError(t, err)
	deployed := out.(map[string]interface{})["database"].(*models.DeployedDatabase)
	assert.Equal(t, "db-pm", deployed.ID)
	assert.False(t, deployed.SampleDataAdded)

	_, err = dispatch(t, svc, constants.ActionDeployTemplate, map[string]interface{}{"templateId": "ghost"})
	assert.True(t, apperrors.IsValidation(err))

	out, err = dispatch(t, svc, constants.ActionBulkCreate, map[string]interface{}{
		"templates": []map[string]interface{}{{"templateId": "project_management"}, {"templateId": "ghost"}},
	})
	require.NoError(t, err)
	bulk := out.(models.BulkResult)
	assert.Equal(t, 1, bulk.TotalCreated)
	assert.Equal(t, 1, bulk.TotalFailed)
	assert.Equal(t, "ghost", bulk.Results[1].TemplateID)
}
