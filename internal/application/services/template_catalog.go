package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/schema"
	apperrors "github.com/notionforge/backend/pkg/errors"
)

// ExportVersion is the version stamped on template exports
const ExportVersion = "1.0"

// TemplateCatalog is the in-process template store. System templates are
// seeded at startup; custom templates live until the process exits.
// It is safe for concurrent use.
type TemplateCatalog struct {
	templates map[string]*models.Template
	order     []string
	eventBus  *EventBus
	now       func() time.Time
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewTemplateCatalog creates an empty catalog
func NewTemplateCatalog(eventBus *EventBus, logger *zap.Logger) *TemplateCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateCatalog{
		templates: make(map[string]*models.Template),
		eventBus:  eventBus,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock sets the clock used for created/updated stamps
func (c *TemplateCatalog) WithClock(now func() time.Time) *TemplateCatalog {
	c.now = now
	return c
}

// SeedSystem installs read-only system templates in the given order
func (c *TemplateCatalog) SeedSystem(ids []string, templates map[string]*models.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		t, ok := templates[id]
		if !ok {
			continue
		}
		cp := t.Clone()
		cp.Custom = false
		c.put(id, cp)
	}
}

// put stores t under id, keeping first-insertion order. Caller holds the lock.
func (c *TemplateCatalog) put(id string, t *models.Template) {
	if _, exists := c.templates[id]; !exists {
		c.order = append(c.order, id)
	}
	c.templates[id] = t
}

func (c *TemplateCatalog) stamp() string {
	return c.now().UTC().Format(isoMillis)
}

// Get returns a copy of one template
func (c *TemplateCatalog) Get(id string) (*models.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Template", id)
	}
	return t.Clone(), nil
}

// Exists reports whether id is in the catalog
func (c *TemplateCatalog) Exists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.templates[id]
	return ok
}

// List returns template summaries in insertion order
func (c *TemplateCatalog) List() []models.TemplateSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.TemplateSummary, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id].Summary(id))
	}
	return out
}

// PromptTemplates returns every template in the form offered to the model
func (c *TemplateCatalog) PromptTemplates() []models.PromptTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.PromptTemplate, 0, len(c.order))
	for _, id := range c.order {
		t := c.templates[id]
		out = append(out, models.PromptTemplate{
			ID:            id,
			Title:         t.Title,
			Description:   t.Description,
			Properties:    t.Properties,
			PropertyCount: len(t.Properties),
			AsDataSource:  t.AsDataSource(),
		})
	}
	return out
}

// Schema returns the editing view of a template and its one-source schema
func (c *TemplateCatalog) Schema(id string) (models.TemplateDetail, schema.MultiSourceSchema, error) {
	t, err := c.Get(id)
	if err != nil {
		return models.TemplateDetail{}, schema.MultiSourceSchema{}, err
	}
	detail := models.TemplateDetail{
		ID:          id,
		Title:       t.Title,
		Description: t.Description,
		Properties:  t.Properties,
		SampleData:  t.SampleData,
	}
	return detail, t.AsSchema(), nil
}

// Save stores a custom template under id, replacing any previous one
func (c *TemplateCatalog) Save(ctx context.Context, id string, t *models.Template) error {
	if id == "" {
		return apperrors.NewValidationError("templateId", "Template ID is required")
	}
	if !validTemplate(t) {
		return apperrors.NewValidationError("template", "Invalid template structure")
	}

	cp := t.Clone()
	stamp := c.stamp()
	cp.Created = stamp
	cp.Updated = stamp
	cp.Custom = true

	c.mu.Lock()
	c.put(id, cp)
	c.mu.Unlock()

	c.emit(ctx, events.TemplateSaved, id)
	return nil
}

// Update shallow-merges updates into the template and returns the result
func (c *TemplateCatalog) Update(ctx context.Context, id string, updates map[string]interface{}) (*models.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.templates[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Template", id)
	}

	merged, err := toMap(current)
	if err != nil {
		return nil, err
	}
	for k, v := range updates {
		merged[k] = v
	}
	merged["updated"] = c.stamp()

	next, err := templateFromMap(merged)
	if err != nil {
		return nil, apperrors.NewValidationError("updates", err.Error())
	}
	// System templates stay system templates
	next.Custom = current.Custom
	c.templates[id] = next

	c.emit(ctx, events.TemplateSaved, id)
	return next.Clone(), nil
}

// Delete removes a custom template; system templates are protected
func (c *TemplateCatalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.templates[id]
	if !ok {
		return apperrors.NewNotFoundError("Template", id)
	}
	if !t.Custom {
		return apperrors.NewForbiddenError("delete", "system templates")
	}

	delete(c.templates, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}

	c.emit(ctx, events.TemplateDeleted, id)
	return nil
}

// Duplicate copies sourceID to newID with optional customizations
func (c *TemplateCatalog) Duplicate(ctx context.Context, sourceID, newID string, custom *models.Customizations) (*models.Template, error) {
	if newID == "" {
		return nil, apperrors.NewValidationError("newTemplateId", "New template ID is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	source, ok := c.templates[sourceID]
	if !ok {
		return nil, apperrors.NewNotFoundError("Template", sourceID)
	}
	if _, exists := c.templates[newID]; exists {
		return nil, apperrors.NewConflictError("Template", "id", newID)
	}

	dup := custom.Apply(source)
	if custom == nil || custom.Title == "" {
		dup.Title = source.Title + " (Copy)"
	}
	stamp := c.stamp()
	dup.Created = stamp
	dup.Updated = stamp
	dup.Custom = true
	dup.OriginalTemplate = sourceID
	c.put(newID, dup)

	c.emit(ctx, events.TemplateSaved, newID)
	return dup.Clone(), nil
}

// Export returns custom templates, or every template when includeSystem is set
func (c *TemplateCatalog) Export(includeSystem bool) models.TemplateExport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := models.TemplateExport{
		Templates:  make(map[string]*models.Template),
		ExportDate: c.stamp(),
		Version:    ExportVersion,
	}
	for id, t := range c.templates {
		if includeSystem || t.Custom {
			out.Templates[id] = t.Clone()
		}
	}
	return out
}

// Import adds templates from an export document. Existing ids are skipped
// unless overwrite is set, or copied under a fresh id when duplicateIfExists is set.
// Item failures are reported in the result and never abort the import.
func (c *TemplateCatalog) Import(ctx context.Context, templates map[string]interface{}, overwrite, duplicateIfExists bool) models.ImportResult {
	result := models.ImportResult{
		Imported: []string{},
		Skipped:  []string{},
		Errors:   []models.ImportError{},
	}

	ids := make([]string, 0, len(templates))
	for id := range templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		raw, _ := templates[id].(map[string]interface{})
		props := inferProperties(raw)
		if props == nil {
			result.Errors = append(result.Errors, models.ImportError{TemplateID: id, Error: "Template missing properties"})
			continue
		}

		normalized := make(map[string]interface{}, len(raw)+1)
		for k, v := range raw {
			normalized[k] = v
		}
		normalized["properties"] = props

		t, err := templateFromMap(normalized)
		if err != nil {
			result.Errors = append(result.Errors, models.ImportError{TemplateID: id, Error: err.Error()})
			continue
		}

		if !validTemplate(t) {
			result.Errors = append(result.Errors, models.ImportError{TemplateID: id, Error: "Invalid template structure"})
			continue
		}
		if _, exists := c.templates[id]; exists && !overwrite {
			if !duplicateIfExists {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			newID, title := c.copyName(id, t.Title)
			t.Title = title
			t.Custom = true
			t.Imported = c.stamp()
			t.OriginalTemplate = id
			c.put(newID, t)
			result.Imported = append(result.Imported, newID)
			continue
		}

		t.Custom = true
		t.Imported = c.stamp()
		c.put(id, t)
		result.Imported = append(result.Imported, id)
	}

	if len(result.Imported) > 0 {
		c.emit(ctx, events.TemplateImported, result.Imported)
	}
	c.logger.Info("templates imported",
		zap.Int("imported", len(result.Imported)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// copyName finds the first free {id}_copy / {id}_copy_N. Caller holds the lock.
func (c *TemplateCatalog) copyName(id, title string) (string, string) {
	if title == "" {
		title = id
	}
	counter := 1
	newID := id + "_copy"
	for {
		if _, taken := c.templates[newID]; !taken {
			break
		}
		counter++
		newID = fmt.Sprintf("%s_copy_%d", id, counter)
	}
	if counter > 1 {
		return newID, fmt.Sprintf("%s (Copy %d)", title, counter)
	}
	return newID, title + " (Copy)"
}

// inferProperties looks for a property map in the places exports put one
func inferProperties(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	if props, ok := raw["properties"].(map[string]interface{}); ok {
		return props
	}
	if s, ok := raw["schema"].(map[string]interface{}); ok {
		if sources, ok := s["dataSources"].([]interface{}); ok && len(sources) > 0 {
			if first, ok := sources[0].(map[string]interface{}); ok {
				if props, ok := first["properties"].(map[string]interface{}); ok {
					return props
				}
			}
		}
	}
	if ds, ok := raw["asDataSource"].(map[string]interface{}); ok {
		if props, ok := ds["properties"].(map[string]interface{}); ok {
			return props
		}
	}
	return nil
}

func validTemplate(t *models.Template) bool {
	return t != nil && t.Title != "" && t.Properties != nil
}

func templateFromMap(m map[string]interface{}) (*models.Template, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	var t models.Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	return &t, nil
}

func (c *TemplateCatalog) emit(ctx context.Context, eventType EventType, payload interface{}) {
	if c.eventBus != nil {
		c.eventBus.Emit(ctx, eventType, payload)
	}
}
