package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/fieldtypes"
	"github.com/notionforge/backend/pkg/notion"
)

// Page selects one page of a record listing
type Page struct {
	Size   int
	Cursor string
}

// RecordGateway is the version-aware CRUD proxy over the records of one
// container. Every payload it returns has private fields masked.
type RecordGateway struct {
	api               ports.WorkspaceAPI
	resolver          *VersionResolver
	eventBus          *EventBus
	defaultDatabaseID string
	logger            *zap.Logger
}

// NewRecordGateway creates a gateway. defaultDatabaseID is used when a
// request names no container.
func NewRecordGateway(api ports.WorkspaceAPI, resolver *VersionResolver, eventBus *EventBus, defaultDatabaseID string, logger *zap.Logger) *RecordGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordGateway{
		api:               api,
		resolver:          resolver,
		eventBus:          eventBus,
		defaultDatabaseID: defaultDatabaseID,
		logger:            logger,
	}
}

// ContainerID returns id or the configured default
func (g *RecordGateway) ContainerID(id string) (string, error) {
	if id == "" {
		id = g.defaultDatabaseID
	}
	if id == "" {
		return "", apperrors.NewValidationError(constants.ParamDatabaseID, "Database ID is required")
	}
	return id, nil
}

// List returns one page of records. An explicit dataSourceID skips resolution.
func (g *RecordGateway) List(ctx context.Context, containerID, dataSourceID string, page Page) (*models.RecordPage, error) {
	if page.Size <= 0 {
		page.Size = constants.DefaultPageSize
	}
	q := notion.QueryRequest{PageSize: page.Size, StartCursor: page.Cursor}

	var target models.QueryTarget
	var schemaProps map[string]interface{}

	if dataSourceID != "" {
		target = models.QueryTarget{Kind: models.TargetSource, ID: dataSourceID}
	} else {
		id, err := g.ContainerID(containerID)
		if err != nil {
			return nil, err
		}
		resolved, db, err := g.resolver.resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		target = resolved
		schemaProps = db.Properties
		if target.Kind == models.TargetSource && len(schemaProps) == 0 {
			schemaProps = g.sourceProperties(ctx, target.ID)
		}
		if hasArchivedCheckbox(schemaProps) {
			q.Filter = map[string]interface{}{
				"property": constants.ArchivedProperty,
				"checkbox": map[string]interface{}{"equals": false},
			}
		}
	}

	var resp *notion.QueryResponse
	var err error
	if target.Kind == models.TargetSource {
		resp, err = g.api.QueryDataSource(ctx, target.ID, q)
	} else {
		resp, err = g.api.QueryDatabase(ctx, target.ID, q)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	out := &models.RecordPage{
		Success:    true,
		Results:    MaskPrivateFields(resp.Results).([]map[string]interface{}),
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}
	if target.Kind == models.TargetSource {
		out.DataSourceID = target.ID
	}
	return out, nil
}

// sourceProperties returns the schema of a data source; a failure only
// disables the archived filter
func (g *RecordGateway) sourceProperties(ctx context.Context, dataSourceID string) map[string]interface{} {
	ds, err := g.api.RetrieveDataSource(ctx, dataSourceID)
	if err != nil {
		g.logger.Debug("data source schema unavailable", zap.String("data_source_id", dataSourceID), zap.Error(err))
		return nil
	}
	return ds.Properties
}

func hasArchivedCheckbox(props map[string]interface{}) bool {
	raw, ok := props[constants.ArchivedProperty]
	if !ok {
		return false
	}
	kind, ok := fieldtypes.KindOf(raw)
	return ok && kind == fieldtypes.KindCheckbox
}

// Get returns one record
func (g *RecordGateway) Get(ctx context.Context, recordID string) (map[string]interface{}, error) {
	page, err := g.api.RetrievePage(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return maskMap(page), nil
}

// Create adds a record and returns it with the data source it was written to
func (g *RecordGateway) Create(ctx context.Context, containerID, dataSourceID string, properties map[string]interface{}) (map[string]interface{}, string, error) {
	var parent models.ParentRef
	if dataSourceID != "" {
		parent = models.ParentRef{DataSourceID: dataSourceID}
	} else {
		id, err := g.ContainerID(containerID)
		if err != nil {
			return nil, "", err
		}
		parent, err = g.resolver.ResolveCreationParent(ctx, id)
		if err != nil {
			return nil, "", err
		}
	}

	page, err := g.api.CreatePage(ctx, parent, properties)
	if err != nil {
		return nil, "", err
	}
	g.emit(ctx, events.RecordCreated, page)
	return maskMap(page), parent.DataSourceID, nil
}

// Update patches the properties of a record
func (g *RecordGateway) Update(ctx context.Context, recordID string, properties map[string]interface{}) (map[string]interface{}, error) {
	if recordID == "" {
		return nil, apperrors.NewValidationError(constants.ParamID, "Record ID is required for updates")
	}
	g.logger.Debug("updating record",
		zap.String("record_id", recordID),
		zap.String("api_version", g.api.APIVersion(ctx).String()),
		zap.Int("properties", len(properties)),
	)
	page, err := g.api.UpdatePage(ctx, recordID, map[string]interface{}{"properties": properties})
	if err != nil {
		return nil, err
	}
	g.emit(ctx, events.RecordUpdated, page)
	return maskMap(page), nil
}

// Archive is the only form of delete
func (g *RecordGateway) Archive(ctx context.Context, recordID string) error {
	if recordID == "" {
		return apperrors.NewValidationError(constants.ParamID, "Record ID is required for deletion")
	}
	if _, err := g.api.UpdatePage(ctx, recordID, map[string]interface{}{"archived": true}); err != nil {
		return err
	}
	g.emit(ctx, events.RecordArchived, recordID)
	return nil
}

// RetrieveWithProperties returns the container metadata with its schema.
// When the container omits properties, the first data source supplies them.
func (g *RecordGateway) RetrieveWithProperties(ctx context.Context, containerID string) (map[string]interface{}, error) {
	id, err := g.ContainerID(containerID)
	if err != nil {
		return nil, err
	}
	db, err := g.api.RetrieveDatabase(ctx, id)
	if err != nil {
		return nil, err
	}

	props, err := g.resolver.SchemaProperties(ctx, db)
	if err != nil {
		return nil, err
	}
	db.Properties = props

	doc, err := toMap(db)
	if err != nil {
		return nil, err
	}
	return maskMap(doc), nil
}

func (g *RecordGateway) emit(ctx context.Context, eventType EventType, payload interface{}) {
	if g.eventBus != nil {
		g.eventBus.Emit(ctx, eventType, payload)
	}
}

func maskMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	return MaskPrivateFields(m).(map[string]interface{})
}

// toMap converts a typed API object into decoded JSON so it can be masked
func toMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return out, nil
}
