package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/schema"
	apperrors "github.com/notionforge/backend/pkg/errors"
)

func seededCatalog(t *testing.T) (*TemplateCatalog, *EventBus) {
	t.Helper()
	bus := NewEventBus(zap.NewNop())
	now := time.Date(2025, 9, 3, 12, 0, 0, 0, time.UTC)
	catalog := NewTemplateCatalog(bus, zap.NewNop()).WithClock(func() time.Time { return now })
	catalog.SeedSystem([]string{"project_management", "customer_crm"}, map[string]*models.Template{
		"project_management": {
			Title:       "Project Management Hub",
			Description: "Tasks and timelines",
			Properties: schema.PropertyMap{
				"Task Name": map[string]interface{}{"title": map[string]interface{}{}},
				"Status":    map[string]interface{}{"select": map[string]interface{}{"options": []interface{}{}}},
			},
			SampleData: []map[string]interface{}{{"Task Name": "Kickoff"}},
		},
		"customer_crm": {
			Title:      "Customer Relationship Manager",
			Properties: schema.PropertyMap{"Name": map[string]interface{}{"title": map[string]interface{}{}}},
		},
	})
	return catalog, bus
}

func customTemplate(title string) *models.Template {
	return &models.Template{
		Title:      title,
		Properties: schema.PropertyMap{"Name": map[string]interface{}{"title": map[string]interface{}{}}},
	}
}

func TestTemplateCatalog_ListAndSchema(t *testing.T) {
	catalog, _ := seededCatalog(t)

	list := catalog.List()
	require.Len(t, list, 2)
	assert.Equal(t, "project_management", list[0].ID)
	assert.Equal(t, 2, list[0].PropertyCount)
	assert.True(t, list[0].HasSampleData)
	assert.False(t, list[1].HasSampleData)
	assert.False(t, list[0].Custom)

	detail, s, err := catalog.Schema("project_management")
	require.NoError(t, err)
	assert.Equal(t, "Project Management Hub", detail.Title)
	require.Len(t, s.DataSources, 1)
	assert.Equal(t, "Project Management Hub", s.DataSources[0].Name)
	assert.Len(t, s.DataSources[0].Properties, 2)

	_, _, err = catalog.Schema("missing")
	assert.True(t, apperrors.IsNotFound(err))

	prompts := catalog.PromptTemplates()
	require.Len(t, prompts, 2)
	assert.Equal(t, "customer_crm", prompts[1].ID)
	assert.Equal(t, 1, prompts[1].PropertyCount)
}

func TestTemplateCatalog_GetReturnsCopy(t *testing.T) {
	catalog, _ := seededCatalog(t)

	tpl, err := catalog.Get("project_management")
	require.NoError(t, err)
	delete(tpl.Properties, "Status")

	again, err := catalog.Get("project_management")
	require.NoError(t, err)
	assert.Contains(t, again.Properties, "Status")
}

func TestTemplateCatalog_SaveUpdateDelete(t *testing.T) {
	catalog, bus := seededCatalog(t)
	ctx := context.Background()

	err := catalog.Save(ctx, "bad", &models.Template{Title: "No properties"})
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, catalog.Save(ctx, "reading_list", customTemplate("Reading List")))
	saved, err := catalog.Get("reading_list")
	require.NoError(t, err)
	assert.True(t, saved.Custom)
	assert.Equal(t, "2025-09-03T12:00:00.000Z", saved.Created)
	assert.Equal(t, saved.Created, saved.Updated)

	updated, err := catalog.Update(ctx, "reading_list", map[string]interface{}{"description": "Books to read"})
	require.NoError(t, err)
	assert.Equal(t, "Books to read", updated.Description)
	assert.Equal(t, "Reading List", updated.Title)
	assert.True(t, updated.Custom)

	_, err = catalog.Update(ctx, "missing", map[string]interface{}{"title": "x"})
	assert.True(t, apperrors.IsNotFound(err))

	err = catalog.Delete(ctx, "project_management")
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, 403, apperrors.GetHTTPStatus(err))

	require.NoError(t, catalog.Delete(ctx, "reading_list"))
	assert.False(t, catalog.Exists("reading_list"))
	assert.Len(t, catalog.List(), 2)

	err = catalog.Delete(ctx, "reading_list")
	assert.True(t, apperrors.IsNotFound(err))

	counts := bus.Counts()
	assert.Equal(t, int64(2), counts[events.TemplateSaved])
	assert.Equal(t, int64(1), counts[events.TemplateDeleted])
}

func TestTemplateCatalog_Duplicate(t *testing.T) {
	catalog, _ := seededCatalog(t)
	ctx := context.Background()

	dup, err := catalog.Duplicate(ctx, "project_management", "pm_copy", nil)
	require.NoError(t, err)
	assert.Equal(t, "Project Management Hub (Copy)", dup.Title)
	assert.Equal(t, "Tasks and timelines", dup.Description)
	assert.Equal(t, "project_management", dup.OriginalTemplate)
	assert.True(t, dup.Custom)

	custom, err := catalog.Duplicate(ctx, "project_management", "sprints", &models.Customizations{
		Title:      "Sprint Board",
		Properties: map[string]interface{}{"Points": map[string]interface{}{"number": map[string]interface{}{}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sprint Board", custom.Title)
	assert.Len(t, custom.Properties, 3)

	_, err = catalog.Duplicate(ctx, "project_management", "sprints", nil)
	assert.True(t, apperrors.IsConflict(err))

	_, err = catalog.Duplicate(ctx, "missing", "x", nil)
	assert.True(t, apperrors.IsNotFound(err))

	// The source is untouched
	source, err := catalog.Get("project_management")
	require.NoError(t, err)
	assert.Len(t, source.Properties, 2)
}

func TestTemplateCatalog_Export(t *testing.T) {
	catalog, _ := seededCatalog(t)
	require.NoError(t, catalog.Save(context.Background(), "reading_list", customTemplate("Reading List")))

	custom := catalog.Export(false)
	assert.Equal(t, "1.0", custom.Version)
	assert.Equal(t, "2025-09-03T12:00:00.000Z", custom.ExportDate)
	assert.Len(t, custom.Templates, 1)
	assert.Contains(t, custom.Templates, "reading_list")

	all := catalog.Export(true)
	assert.Len(t, all.Templates, 3)
}

func TestTemplateCatalog_Import(t *testing.T) {
	catalog, bus := seededCatalog(t)
	ctx := context.Background()

	doc := map[string]interface{}{
		"direct": map[string]interface{}{
			"title":      "Direct",
			"properties": map[string]interface{}{"Name": map[string]interface{}{"title": map[string]interface{}{}}},
		},
		"from_schema": map[string]interface{}{
			"title": "From Schema",
			"schema": map[string]interface{}{
				"dataSources": []interface{}{
					map[string]interface{}{"name": "S", "properties": map[string]interface{}{"A": map[string]interface{}{}}},
				},
			},
		},
		"from_source": map[string]interface{}{
			"title":        "From Source",
			"asDataSource": map[string]interface{}{"properties": map[string]interface{}{"B": map[string]interface{}{}}},
		},
		"no_props":     map[string]interface{}{"title": "Nothing"},
		"no_title":     map[string]interface{}{"properties": map[string]interface{}{}},
		"customer_crm": map[string]interface{}{"title": "CRM", "properties": map[string]interface{}{}},
	}

	result := catalog.Import(ctx, doc, false, false)
	assert.Equal(t, []string{"direct", "from_schema", "from_source"}, result.Imported)
	assert.Equal(t, []string{"customer_crm"}, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "no_props", result.Errors[0].TemplateID)
	assert.Equal(t, "no_title", result.Errors[1].TemplateID)

	imported, err := catalog.Get("from_schema")
	require.NoError(t, err)
	assert.True(t, imported.Custom)
	assert.NotEmpty(t, imported.Imported)
	assert.Contains(t, imported.Properties, "A")

	// Existing ids become copies when requested
	again := map[string]interface{}{
		"direct": map[string]interface{}{"title": "Direct", "properties": map[string]interface{}{}},
	}
	result = catalog.Import(ctx, again, false, true)
	assert.Equal(t, []string{"direct_copy"}, result.Imported)
	result = catalog.Import(ctx, again, false, true)
	assert.Equal(t, []string{"direct_copy_2"}, result.Imported)

	second, err := catalog.Get("direct_copy_2")
	require.NoError(t, err)
	assert.Equal(t, "Direct (Copy 2)", second.Title)
	assert.Equal(t, "direct", second.OriginalTemplate)

	// Copies go through the same structure check
	result = catalog.Import(ctx, map[string]interface{}{
		"direct": map[string]interface{}{"properties": map[string]interface{}{}},
	}, false, true)
	assert.Empty(t, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid template structure", result.Errors[0].Error)
	_, err = catalog.Get("direct_copy_3")
	assert.True(t, apperrors.IsNotFound(err))

	// Overwrite replaces in place, system templates included
	result = catalog.Import(ctx, map[string]interface{}{
		"customer_crm": map[string]interface{}{"title": "CRM v2", "properties": map[string]interface{}{}},
	}, true, false)
	assert.Equal(t, []string{"customer_crm"}, result.Imported)
	crm, err := catalog.Get("customer_crm")
	require.NoError(t, err)
	assert.Equal(t, "CRM v2", crm.Title)

	assert.Equal(t, int64(4), bus.Counts()[events.TemplateImported])
}
