package services

import (
	"context"
	"fmt"

	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/ports"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/notion"
)

// VersionResolver decides, per container, whether the container itself or
// its first data source is the collection to query and to parent records under.
// Container metadata is fetched on every call; the answer is never cached.
type VersionResolver struct {
	api ports.WorkspaceAPI
}

// NewVersionResolver creates a new VersionResolver
func NewVersionResolver(api ports.WorkspaceAPI) *VersionResolver {
	return &VersionResolver{api: api}
}

// ResolveQueryTarget returns the collection records of containerID are queried from
func (r *VersionResolver) ResolveQueryTarget(ctx context.Context, containerID string) (models.QueryTarget, error) {
	target, _, err := r.resolve(ctx, containerID)
	return target, err
}

// ResolveCreationParent returns the parent object for a new record in containerID
func (r *VersionResolver) ResolveCreationParent(ctx context.Context, containerID string) (models.ParentRef, error) {
	db, err := r.retrieve(ctx, containerID)
	if err != nil {
		return models.ParentRef{}, err
	}
	return ParentFor(db), nil
}

// resolve returns the query target together with the metadata it was derived from
func (r *VersionResolver) resolve(ctx context.Context, containerID string) (models.QueryTarget, *notion.Database, error) {
	db, err := r.retrieve(ctx, containerID)
	if err != nil {
		return models.QueryTarget{}, nil, err
	}
	return TargetFor(db), db, nil
}

func (r *VersionResolver) retrieve(ctx context.Context, containerID string) (*notion.Database, error) {
	db, err := r.api.RetrieveDatabase(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get data source from database: %w", err)
	}
	if db.ID == "" {
		db.ID = containerID
	}
	return db, nil
}

// SchemaProperties returns the property map of already-fetched metadata.
// When the container omits properties, the first data source supplies them.
func (r *VersionResolver) SchemaProperties(ctx context.Context, db *notion.Database) (map[string]interface{}, error) {
	if len(db.Properties) > 0 {
		return db.Properties, nil
	}
	if len(db.DataSources) == 0 {
		return nil, apperrors.ErrNoDataSources
	}
	ds, err := r.api.RetrieveDataSource(ctx, db.DataSources[0].ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get database properties: %w", err)
	}
	if len(ds.Properties) == 0 {
		return nil, fmt.Errorf("failed to get database properties: %w", apperrors.ErrNoProperties)
	}
	return ds.Properties, nil
}

// TargetFor applies the resolution rule to already-fetched metadata
func TargetFor(db *notion.Database) models.QueryTarget {
	if len(db.DataSources) > 0 {
		return models.QueryTarget{Kind: models.TargetSource, ID: db.DataSources[0].ID}
	}
	return models.QueryTarget{Kind: models.TargetContainer, ID: db.ID}
}

// ParentFor returns the record parent for already-fetched metadata,
// used right after a container is created
func ParentFor(db *notion.Database) models.ParentRef {
	if len(db.DataSources) > 0 {
		return models.ParentRef{DataSourceID: db.DataSources[0].ID}
	}
	return models.ParentRef{DatabaseID: db.ID}
}
