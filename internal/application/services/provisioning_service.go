package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/internal/domain/schema"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/fieldtypes"
	"github.com/notionforge/backend/pkg/notion"
	"github.com/notionforge/backend/pkg/utils"
)

// ProvisioningService creates databases from schemas and catalog templates
type ProvisioningService struct {
	api             ports.WorkspaceAPI
	resolver        *VersionResolver
	catalog         *TemplateCatalog
	listing         *ListingService
	eventBus        *EventBus
	defaultParentID string
	now             func() time.Time
	logger          *zap.Logger
}

// NewProvisioningService creates a new ProvisioningService. defaultParentID
// is the page new databases go under when a request names none.
func NewProvisioningService(
	api ports.WorkspaceAPI,
	resolver *VersionResolver,
	catalog *TemplateCatalog,
	listing *ListingService,
	eventBus *EventBus,
	defaultParentID string,
	logger *zap.Logger,
) *ProvisioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningService{
		api:             api,
		resolver:        resolver,
		catalog:         catalog,
		listing:         listing,
		eventBus:        eventBus,
		defaultParentID: defaultParentID,
		now:             time.Now,
		logger:          logger,
	}
}

// ParentPage returns id or the configured default parent page
func (s *ProvisioningService) ParentPage(id string) (string, error) {
	if id == "" {
		id = s.defaultParentID
	}
	if id == "" {
		return "", apperrors.NewConfigurationError(constants.EnvNotionParentPageID)
	}
	return id, nil
}

// CreateDatabase creates one database from a single-database schema
func (s *ProvisioningService) CreateDatabase(ctx context.Context, def schema.Definition, parentID string) (*models.CreatedDatabase, error) {
	parent, err := s.ParentPage(parentID)
	if err != nil {
		return nil, err
	}

	props, err := prepareProperties(def.Properties)
	if err != nil {
		return nil, apperrors.NewValidationError("schema", err.Error())
	}
	props = fieldtypes.EnsureTitle(props)

	title := def.Title
	if title == "" {
		title = constants.NewDatabaseTitle
	}

	db, err := s.create(ctx, notion.NewCreateDatabaseRequest(parent, title, def.Description, props))
	if err != nil {
		return nil, err
	}

	names := schema.PropertyMap(db.Properties).Names()
	if len(names) == 0 {
		names = schema.PropertyMap(props).Names()
	}
	return &models.CreatedDatabase{
		ID:          db.ID,
		Title:       title,
		URL:         db.URL,
		CreatedTime: db.CreatedTime,
		Properties:  names,
	}, nil
}

// CreateSeparate creates one database per data source, titled "{title} - {name}".
// A failed source is reported in the result and does not stop the others.
func (s *ProvisioningService) CreateSeparate(ctx context.Context, ms schema.MultiSourceSchema, parentID string) (*models.SeparateResult, error) {
	parent, err := s.ParentPage(parentID)
	if err != nil {
		return nil, err
	}
	if err := ms.Validate(); err != nil {
		return nil, apperrors.NewValidationError("schema", err.Error())
	}

	s.logger.Info("creating separate databases",
		zap.String("title", ms.Title),
		zap.Int("sources", len(ms.DataSources)),
	)

	result := &models.SeparateResult{
		Success:    true,
		Databases:  []models.SeparateDatabase{},
		SampleData: []models.SamplePage{},
		Errors:     []models.SeparateDatabase{},
	}

	for i, ds := range ms.DataSources {
		item := models.SeparateDatabase{
			Name:        ds.Name,
			Description: ds.Description,
			Properties:  ds.Properties.Names(),
			Status:      models.StatusSuccess,
		}

		db, err := s.createSource(ctx, parent, ms.Title, ds)
		if err != nil {
			s.logger.Warn("data source database failed",
				zap.Int("index", i),
				zap.String("source", ds.Name),
				zap.Error(err),
			)
			item.Status = models.StatusError
			item.Error = err.Error()
			result.Databases = append(result.Databases, item)
			result.Errors = append(result.Errors, item)
			result.HasErrors = true
			continue
		}

		item.ID = db.ID
		item.URL = db.URL
		item.Title = db.PlainTitle()
		if item.Title == "" {
			item.Title = ds.Name
		}

		report := s.compareWith(ctx, db, ds.Properties)
		if !report.Success || !report.AllPropertiesPresent {
			s.logger.Warn("column verification failed",
				zap.String("source", ds.Name),
				zap.Strings("missing", report.MissingProperties),
				zap.String("error", report.Error),
			)
		}
		result.Databases = append(result.Databases, item)
	}

	result.Message = fmt.Sprintf("%s created successfully with %d separate databases", ms.Title, len(result.Databases))
	return result, nil
}

func (s *ProvisioningService) createSource(ctx context.Context, parent, title string, ds schema.DataSourceSchema) (*notion.Database, error) {
	props, err := prepareProperties(ds.Properties)
	if err != nil {
		return nil, err
	}
	props = fieldtypes.EnsureTitle(props)

	req := notion.NewCreateDatabaseRequest(parent, fmt.Sprintf("%s - %s", title, ds.Name), ds.Description, props)
	db, err := s.create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("database creation failed for %s: %w", ds.Name, err)
	}
	if db.ID == "" {
		return nil, fmt.Errorf("database creation failed for %s: no ID returned", ds.Name)
	}
	return db, nil
}

// CreateMultiSource creates one container whose schema is the first data source.
// The other sources are merged in with "{name}_{key}" property names and every
// source gets one sample record.
func (s *ProvisioningService) CreateMultiSource(ctx context.Context, ms schema.MultiSourceSchema, parentID string) (*models.MultiSourceResult, error) {
	parent, err := s.ParentPage(parentID)
	if err != nil {
		return nil, err
	}
	if err := ms.Validate(); err != nil {
		return nil, apperrors.NewValidationError("schema", err.Error())
	}

	layouts := make([]sourceLayout, len(ms.DataSources))
	var containerProps map[string]interface{}
	if len(ms.DataSources) > 0 {
		containerProps, err = prepareProperties(ms.DataSources[0].Properties)
		if err != nil {
			return nil, apperrors.NewValidationError("dataSources[0]", err.Error())
		}
		layouts[0] = layoutOf(ms.DataSources[0], containerProps, "")
	}
	containerProps = fieldtypes.EnsureTitle(containerProps)
	titleKey := titleProperty(containerProps)

	db, err := s.create(ctx, notion.NewCreateDatabaseRequest(parent, ms.Title, ms.Description, containerProps))
	if err != nil {
		return nil, err
	}

	merged := []models.MergedSource{}
	for i := 1; i < len(ms.DataSources); i++ {
		ds := ms.DataSources[i]
		item := models.MergedSource{Name: ds.Name, Description: ds.Description, Status: models.StatusCreated}

		additions, err := prefixedProperties(ds)
		if err == nil {
			_, err = s.api.UpdateDatabase(ctx, db.ID, additions)
		}
		if err != nil {
			s.logger.Warn("merging data source failed", zap.String("source", ds.Name), zap.Error(err))
			item.Status = models.StatusError
			item.Error = err.Error()
		} else {
			layouts[i] = layoutOf(ds, additions, ds.Name+"_")
		}
		merged = append(merged, item)
	}

	samples := s.createSamples(ctx, ParentFor(db), ms.DataSources, layouts, titleKey)

	sources := make([]models.SourceRef, len(ms.DataSources))
	for i, ds := range ms.DataSources {
		sources[i] = models.SourceRef{Name: ds.Name, Description: ds.Description}
	}

	title := db.PlainTitle()
	if title == "" {
		title = ms.Title
	}
	count := len(ms.DataSources)
	if count == 0 {
		count = 1
	}
	return &models.MultiSourceResult{
		Success:     true,
		Database:    models.DatabaseRef{ID: db.ID, URL: db.URL, Title: title},
		DataSources: sources,
		Databases:   merged,
		SampleData:  samples,
		Message:     fmt.Sprintf("Multi-source database %q created successfully with %d data source(s) and sample data", ms.Title, count),
	}, nil
}

// sourceLayout records where the properties of one data source live in the container
type sourceLayout struct {
	keys  map[string]string
	kinds map[string]fieldtypes.Kind
}

func layoutOf(ds schema.DataSourceSchema, containerProps map[string]interface{}, prefix string) sourceLayout {
	l := sourceLayout{keys: map[string]string{}, kinds: map[string]fieldtypes.Kind{}}
	for _, name := range ds.Properties.Names() {
		key := prefix + name
		kind, ok := fieldtypes.KindOf(containerProps[key])
		if !ok {
			continue
		}
		l.keys[name] = key
		l.kinds[name] = kind
	}
	return l
}

// prefixedProperties renders a secondary source for the container. A
// container has exactly one title, so secondary titles become rich text.
func prefixedProperties(ds schema.DataSourceSchema) (map[string]interface{}, error) {
	props, err := prepareProperties(ds.Properties)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(props))
	for name, def := range props {
		if kind, _ := fieldtypes.KindOf(def); kind == fieldtypes.KindTitle {
			def = map[string]interface{}{string(fieldtypes.KindRichText): map[string]interface{}{}}
		}
		out[ds.Name+"_"+name] = def
	}
	return out, nil
}

// createSamples adds one sample record per data source. Failures are logged and skipped.
func (s *ProvisioningService) createSamples(ctx context.Context, parent models.ParentRef, sources []schema.DataSourceSchema, layouts []sourceLayout, titleKey string) []models.SamplePage {
	now := s.now()
	out := []models.SamplePage{}
	for i, ds := range sources {
		values := map[string]interface{}{}
		hasTitle := false
		for _, name := range ds.Properties.Names() {
			key, ok := layouts[i].keys[name]
			if !ok {
				continue
			}
			kind := layouts[i].kinds[name]
			if kind == fieldtypes.KindTitle {
				if hasTitle {
					continue
				}
				hasTitle = true
			}
			if v, ok := fieldtypes.SampleValue(ds.Name, name, kind, now); ok {
				values[key] = v
			}
		}
		if !hasTitle && titleKey != "" {
			values[titleKey] = fieldtypes.TextValue(fieldtypes.KindTitle, ds.Name+" Sample Entry")
		}

		page, err := s.api.CreatePage(ctx, parent, values)
		if err != nil {
			s.logger.Warn("sample record failed", zap.String("source", ds.Name), zap.Error(err))
			continue
		}
		sample := models.SamplePage{DataSource: ds.Name}
		sample.PageID, _ = page["id"].(string)
		sample.URL, _ = page["url"].(string)
		out = append(out, sample)
		s.emit(ctx, events.SamplePageCreated, sample)
	}
	return out
}

// DeployTemplate creates a database from a catalog template
func (s *ProvisioningService) DeployTemplate(ctx context.Context, req models.DeployRequest) (*models.DeployedDatabase, error) {
	if req.TemplateID == "" || !s.catalog.Exists(req.TemplateID) {
		return nil, apperrors.NewValidationError("templateId", "Invalid template ID")
	}
	tpl, err := s.catalog.Get(req.TemplateID)
	if err != nil {
		return nil, err
	}
	tpl = req.Customizations.Apply(tpl)

	parent, err := s.ParentPage(req.ParentPageID)
	if err != nil {
		return nil, err
	}

	props, err := prepareProperties(tpl.Properties)
	if err != nil {
		return nil, apperrors.NewValidationError("properties", err.Error())
	}
	props = fieldtypes.EnsureTitle(props)

	db, err := s.create(ctx, notion.NewCreateDatabaseRequest(parent, tpl.Title, tpl.Description, props))
	if err != nil {
		s.emit(ctx, events.TemplateDeployFailed, req.TemplateID)
		return nil, err
	}

	added := 0
	if req.IncludeSampleData && len(tpl.SampleData) > 0 {
		recordParent := ParentFor(db)
		for i, row := range tpl.SampleData {
			if _, err := s.api.CreatePage(ctx, recordParent, utils.DeepCopyMap(row)); err != nil {
				s.logger.Warn("template sample record failed",
					zap.String("template", req.TemplateID),
					zap.Int("row", i),
					zap.Error(err),
				)
				continue
			}
			added++
		}
	}

	s.emit(ctx, events.TemplateDeployed, req.TemplateID)
	return &models.DeployedDatabase{
		ID:              db.ID,
		Title:           tpl.Title,
		URL:             db.URL,
		SampleDataAdded: added > 0,
	}, nil
}

// BulkCreate deploys templates one after another. Item failures are
// reported per item and never fail the batch.
func (s *ProvisioningService) BulkCreate(ctx context.Context, items []models.DeployRequest, parentID string) models.BulkResult {
	result := models.BulkResult{Results: make([]models.BulkItem, 0, len(items))}
	for _, item := range items {
		if item.ParentPageID == "" {
			item.ParentPageID = parentID
		}
		deployed, err := s.DeployTemplate(ctx, item)
		if err != nil {
			result.Results = append(result.Results, models.BulkItem{Error: err.Error(), TemplateID: item.TemplateID})
			result.TotalFailed++
			continue
		}
		result.Results = append(result.Results, models.BulkItem{Success: true, Database: deployed, TemplateID: item.TemplateID})
		result.TotalCreated++
	}
	s.logger.Info("bulk create finished",
		zap.Int("created", result.TotalCreated),
		zap.Int("failed", result.TotalFailed),
	)
	return result
}

// create sends one database creation and tells the rest of the system about it
func (s *ProvisioningService) create(ctx context.Context, req notion.CreateDatabaseRequest) (*notion.Database, error) {
	db, err := s.api.CreateDatabase(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("database created",
		zap.String("id", db.ID),
		zap.String("title", notion.JoinPlainText(req.Title)),
		zap.Int("properties", len(req.Properties)),
	)
	if s.listing != nil {
		s.listing.Invalidate()
	}
	s.emit(ctx, events.DatabaseCreated, events.DatabasePayload{ID: db.ID, Title: notion.JoinPlainText(req.Title)})
	return db, nil
}

// prepareProperties copies, normalizes and color-repairs a property map
func prepareProperties(props map[string]interface{}) (map[string]interface{}, error) {
	normalized, err := fieldtypes.NormalizeProperties(utils.DeepCopyMap(props))
	if err != nil {
		return nil, err
	}
	return fieldtypes.EnsureColorVariation(normalized), nil
}

func titleProperty(props map[string]interface{}) string {
	for _, name := range schema.PropertyMap(props).Names() {
		if kind, ok := fieldtypes.KindOf(props[name]); ok && kind == fieldtypes.KindTitle {
			return name
		}
	}
	return ""
}

func (s *ProvisioningService) emit(ctx context.Context, eventType EventType, payload interface{}) {
	if s.eventBus != nil {
		s.eventBus.Emit(ctx, eventType, payload)
	}
}
