package ports

import (
	"context"

	"github.com/notionforge/backend/pkg/notion"
	"github.com/notionforge/backend/pkg/versioning"
)

// WorkspaceAPI is the subset of the workspace HTTP API the services depend on
type WorkspaceAPI interface {
	APIVersion(ctx context.Context) versioning.APIVersion

	RetrieveDatabase(ctx context.Context, id string) (*notion.Database, error)
	CreateDatabase(ctx context.Context, req notion.CreateDatabaseRequest) (*notion.Database, error)
	UpdateDatabase(ctx context.Context, id string, properties map[string]interface{}) (*notion.Database, error)
	RetrieveDataSource(ctx context.Context, id string) (*notion.DataSource, error)

	QueryDatabase(ctx context.Context, id string, q notion.QueryRequest) (*notion.QueryResponse, error)
	QueryDataSource(ctx context.Context, id string, q notion.QueryRequest) (*notion.QueryResponse, error)

	ListBlockChildren(ctx context.Context, blockID, cursor string) (*notion.BlockList, error)
	ArchiveBlock(ctx context.Context, blockID string) error

	CreatePage(ctx context.Context, parent interface{}, properties map[string]interface{}) (map[string]interface{}, error)
	RetrievePage(ctx context.Context, id string) (map[string]interface{}, error)
	UpdatePage(ctx context.Context, id string, body map[string]interface{}) (map[string]interface{}, error)

	Me(ctx context.Context) (*notion.User, error)
}

// Compile-time check
var _ WorkspaceAPI = (*notion.Client)(nil)
