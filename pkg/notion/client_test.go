package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/versioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveDatabase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/databases/db-1", r.URL.Path)
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2025-09-03", r.Header.Get("Notion-Version"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"object":       "database",
			"id":           "db-1",
			"url":          "https://notion.so/db1",
			"title":        []map[string]interface{}{{"plain_text": "Roadmap"}},
			"data_sources": []map[string]interface{}{{"id": "ds-1", "name": "Main"}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "")
	db, err := client.RetrieveDatabase(context.Background(), "db-1")

	require.NoError(t, err)
	assert.Equal(t, "Roadmap", db.PlainTitle())
	require.Len(t, db.DataSources, 1)
	assert.Equal(t, "ds-1", db.DataSources[0].ID)
}

func TestVersionOverrideFromContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "u1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "2025-09-03")
	ctx := versioning.WithVersion(context.Background(), versioning.ParseVersion("2022-06-28"))
	_, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, versioning.ProtocolContainer, client.APIVersion(ctx).Protocol)
}

func TestUpstreamErrorPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object":  "error",
			"status":  404,
			"code":    "object_not_found",
			"message": "Could not find database",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "")
	_, err := client.RetrieveDatabase(context.Background(), "missing")

	require.Error(t, err)
	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.Status)
	assert.Equal(t, "object_not_found", upstream.UpstreamCode)
	assert.Equal(t, "Could not find database", upstream.Message)
	assert.Equal(t, http.StatusNotFound, apperrors.GetHTTPStatus(err))
}

func TestNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", "").Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.GetHTTPStatus(err))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestQueryDataSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data_sources/ds-1/query", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, float64(100), body["page_size"])
		assert.Equal(t, "abc", body["start_cursor"])

		next := "def"
		json.NewEncoder(w).Encode(QueryResponse{
			Results:    []map[string]interface{}{{"id": "p1"}},
			HasMore:    true,
			NextCursor: &next,
		})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL, "k", "").QueryDataSource(context.Background(), "ds-1", QueryRequest{PageSize: 100, StartCursor: "abc"})
	require.NoError(t, err)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "def", *resp.NextCursor)
	assert.Len(t, resp.Results, 1)
}

func TestListBlockChildren_Cursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks/root/children", r.URL.Path)
		assert.Equal(t, "c2", r.URL.Query().Get("start_cursor"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": "b1", "type": "child_database", "child_database": map[string]string{"title": "Tasks"}},
				{"id": "b2", "type": "paragraph"},
			},
			"has_more": false,
		})
	}))
	defer server.Close()

	list, err := NewClient(server.URL, "k", "").ListBlockChildren(context.Background(), "root", "c2")
	require.NoError(t, err)
	require.Len(t, list.Results, 2)
	assert.Equal(t, "Tasks", list.Results[0].ChildDatabase.Title)
	assert.Nil(t, list.Results[1].ChildDatabase)
}

func TestCreateDatabase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/databases", r.URL.Path)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		parent := body["parent"].(map[string]interface{})
		assert.Equal(t, "page_id", parent["type"])
		assert.Equal(t, "page-1", parent["page_id"])
		assert.Equal(t, []interface{}{}, body["description"])

		json.NewEncoder(w).Encode(map[string]interface{}{"id": "db-new", "url": "https://notion.so/new"})
	}))
	defer server.Close()

	req := NewCreateDatabaseRequest("page-1", "Tasks", "", map[string]interface{}{"Name": map[string]interface{}{"title": map[string]interface{}{}}})
	db, err := NewClient(server.URL, "k", "").CreateDatabase(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "db-new", db.ID)
}
