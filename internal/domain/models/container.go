package models

import (
	"encoding/json"

	"github.com/notionforge/backend/pkg/notion"
)

// TargetKind says which endpoint family a query goes to
type TargetKind string

const (
	TargetContainer TargetKind = "CONTAINER"
	TargetSource    TargetKind = "SOURCE"
)

// QueryTarget is the resolved collection to query
type QueryTarget struct {
	Kind TargetKind
	ID   string
}

// ParentRef is the parent object of a new record; exactly one field is set
type ParentRef struct {
	DataSourceID string `json:"data_source_id,omitempty"`
	DatabaseID   string `json:"database_id,omitempty"`
}

// ContainerSummary describes one database in a listing.
// A Minimal summary carries only id and title.
type ContainerSummary struct {
	ID                     string                 `json:"id"`
	Title                  string                 `json:"title"`
	URL                    string                 `json:"url"`
	LastEditedTime         string                 `json:"last_edited_time"`
	CreatedTime            string                 `json:"created_time"`
	Properties             []string               `json:"properties"`
	HasMultipleDataSources bool                   `json:"hasMultipleDataSources"`
	DataSources            []notion.DataSourceRef `json:"dataSources"`
	DataSourceID           string                 `json:"dataSourceId,omitempty"`
	Minimal                bool                   `json:"-"`
}

func (s ContainerSummary) MarshalJSON() ([]byte, error) {
	if s.Minimal {
		return json.Marshal(struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}{s.ID, s.Title})
	}
	type Alias ContainerSummary
	a := Alias(s)
	if a.Properties == nil {
		a.Properties = []string{}
	}
	if a.DataSources == nil {
		a.DataSources = []notion.DataSourceRef{}
	}
	return json.Marshal(a)
}

// ListingResult is the body of the database listing
type ListingResult struct {
	Success  bool               `json:"success"`
	Count    int                `json:"count"`
	Results  []ContainerSummary `json:"results"`
	CachedAt string             `json:"cached_at"`
}

// RecordPage is one page of records from a query
type RecordPage struct {
	Success      bool                     `json:"success"`
	Results      []map[string]interface{} `json:"results"`
	HasMore      bool                     `json:"has_more"`
	NextCursor   *string                  `json:"next_cursor"`
	DataSourceID string                   `json:"dataSourceId,omitempty"`
}
