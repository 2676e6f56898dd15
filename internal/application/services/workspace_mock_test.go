package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/pkg/notion"
	"github.com/notionforge/backend/pkg/versioning"
)

// MockWorkspace mocks ports.WorkspaceAPI
type MockWorkspace struct {
	mock.Mock
	Version versioning.APIVersion
}

var _ ports.WorkspaceAPI = (*MockWorkspace)(nil)

func newMockWorkspace() *MockWorkspace {
	return &MockWorkspace{Version: versioning.ParseVersion("")}
}

func (m *MockWorkspace) APIVersion(ctx context.Context) versioning.APIVersion {
	if v, ok := versioning.FromContext(ctx); ok {
		return v
	}
	return m.Version
}

func (m *MockWorkspace) RetrieveDatabase(ctx context.Context, id string) (*notion.Database, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Database), args.Error(1)
}

func (m *MockWorkspace) CreateDatabase(ctx context.Context, req notion.CreateDatabaseRequest) (*notion.Database, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Database), args.Error(1)
}

func (m *MockWorkspace) UpdateDatabase(ctx context.Context, id string, properties map[string]interface{}) (*notion.Database, error) {
	args := m.Called(ctx, id, properties)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Database), args.Error(1)
}

func (m *MockWorkspace) RetrieveDataSource(ctx context.Context, id string) (*notion.DataSource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.DataSource), args.Error(1)
}

func (m *MockWorkspace) QueryDatabase(ctx context.Context, id string, q notion.QueryRequest) (*notion.QueryResponse, error) {
	args := m.Called(ctx, id, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.QueryResponse), args.Error(1)
}

func (m *MockWorkspace) QueryDataSource(ctx context.Context, id string, q notion.QueryRequest) (*notion.QueryResponse, error) {
	args := m.Called(ctx, id, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.QueryResponse), args.Error(1)
}

func (m *MockWorkspace) ListBlockChildren(ctx context.Context, blockID, cursor string) (*notion.BlockList, error) {
	args := m.Called(ctx, blockID, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.BlockList), args.Error(1)
}

func (m *MockWorkspace) ArchiveBlock(ctx context.Context, blockID string) error {
	args := m.Called(ctx, blockID)
	return args.Error(0)
}

func (m *MockWorkspace) CreatePage(ctx context.Context, parent interface{}, properties map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, parent, properties)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockWorkspace) RetrievePage(ctx context.Context, id string) (map[string]interface{}, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockWorkspace) UpdatePage(ctx context.Context, id string, body map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, id, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockWorkspace) Me(ctx context.Context) (*notion.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.User), args.Error(1)
}
