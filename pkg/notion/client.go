package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/versioning"
)

const serviceName = "notion"

type Client struct {
	BaseURL    string
	APIKey     string
	Version    string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey, version string) *Client {
	if baseURL == "" {
		baseURL = constants.NotionBaseURL
	}
	if version == "" {
		version = constants.NotionVersionCurrent
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Version: version,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIVersion returns the version requests in ctx are sent with
func (c *Client) APIVersion(ctx context.Context) versioning.APIVersion {
	if v, ok := versioning.FromContext(ctx); ok {
		return v
	}
	return versioning.ParseVersion(c.Version)
}

// Helper to execute requests
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	fullURL := fmt.Sprintf("%s%s", c.BaseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+c.APIKey)
	req.Header.Set(constants.HeaderNotionVersion, c.APIVersion(ctx).String())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &apperrors.UpstreamError{Service: serviceName, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBytes, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, respBytes)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Object != "error" {
		return apperrors.NewUpstreamError(serviceName, status, "", string(body))
	}
	return apperrors.NewUpstreamError(serviceName, status, eb.Code, eb.Message)
}

// API Methods

func (c *Client) RetrieveDatabase(ctx context.Context, id string) (*Database, error) {
	// GET /databases/:id
	var db Database
	if err := c.doRequest(ctx, http.MethodGet, "/databases/"+url.PathEscape(id), nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func (c *Client) CreateDatabase(ctx context.Context, req CreateDatabaseRequest) (*Database, error) {
	// POST /databases
	var db Database
	if err := c.doRequest(ctx, http.MethodPost, "/databases", req, &db); err != nil {
		return nil, err
	}
	if db.ID == "" {
		return nil, fmt.Errorf("created database missing ID")
	}
	return &db, nil
}

func (c *Client) UpdateDatabase(ctx context.Context, id string, properties map[string]interface{}) (*Database, error) {
	// PATCH /databases/:id
	var db Database
	body := map[string]interface{}{"properties": properties}
	if err := c.doRequest(ctx, http.MethodPatch, "/databases/"+url.PathEscape(id), body, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func (c *Client) RetrieveDataSource(ctx context.Context, id string) (*DataSource, error) {
	// GET /data_sources/:id
	var ds DataSource
	if err := c.doRequest(ctx, http.MethodGet, "/data_sources/"+url.PathEscape(id), nil, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *Client) QueryDatabase(ctx context.Context, id string, q QueryRequest) (*QueryResponse, error) {
	// POST /databases/:id/query
	return c.query(ctx, "/databases/"+url.PathEscape(id)+"/query", q)
}

func (c *Client) QueryDataSource(ctx context.Context, id string, q QueryRequest) (*QueryResponse, error) {
	// POST /data_sources/:id/query
	return c.query(ctx, "/data_sources/"+url.PathEscape(id)+"/query", q)
}

func (c *Client) query(ctx context.Context, path string, q QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.doRequest(ctx, http.MethodPost, path, q, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []map[string]interface{}{}
	}
	return &resp, nil
}

func (c *Client) ListBlockChildren(ctx context.Context, blockID, cursor string) (*BlockList, error) {
	// GET /blocks/:id/children
	path := "/blocks/" + url.PathEscape(blockID) + "/children"
	if cursor != "" {
		path += "?start_cursor=" + url.QueryEscape(cursor)
	}
	var list BlockList
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ArchiveBlock moves a block, and the database it holds, to the trash
func (c *Client) ArchiveBlock(ctx context.Context, blockID string) error {
	// PATCH /blocks/:id
	body := map[string]interface{}{"archived": true}
	return c.doRequest(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(blockID), body, nil)
}

func (c *Client) CreatePage(ctx context.Context, parent interface{}, properties map[string]interface{}) (map[string]interface{}, error) {
	// POST /pages
	var page map[string]interface{}
	body := map[string]interface{}{"parent": parent, "properties": properties}
	if err := c.doRequest(ctx, http.MethodPost, "/pages", body, &page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) RetrievePage(ctx context.Context, id string) (map[string]interface{}, error) {
	// GET /pages/:id
	var page map[string]interface{}
	if err := c.doRequest(ctx, http.MethodGet, "/pages/"+url.PathEscape(id), nil, &page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) UpdatePage(ctx context.Context, id string, body map[string]interface{}) (map[string]interface{}, error) {
	// PATCH /pages/:id
	var page map[string]interface{}
	if err := c.doRequest(ctx, http.MethodPatch, "/pages/"+url.PathEscape(id), body, &page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	// GET /users/me
	var u User
	if err := c.doRequest(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
