package notion

import "strings"

// RichText is one run of a rich text array
type RichText struct {
	Type      string       `json:"type,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
}

// TextContent is the payload of a text run
type TextContent struct {
	Content string `json:"content"`
}

// PlainText builds a single-run rich text array for writes
func PlainText(content string) []RichText {
	if content == "" {
		return []RichText{}
	}
	return []RichText{{Type: "text", Text: &TextContent{Content: content}}}
}

// JoinPlainText concatenates the plain text of every run
func JoinPlainText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		switch {
		case r.PlainText != "":
			b.WriteString(r.PlainText)
		case r.Text != nil:
			b.WriteString(r.Text.Content)
		}
	}
	return b.String()
}

// DataSourceRef is an entry of a database's data_sources array
type DataSourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Database is a container as returned by GET /databases/{id}.
// Properties is empty when the data sources own the schema.
type Database struct {
	Object         string                 `json:"object,omitempty"`
	ID             string                 `json:"id"`
	URL            string                 `json:"url,omitempty"`
	CreatedTime    string                 `json:"created_time,omitempty"`
	LastEditedTime string                 `json:"last_edited_time,omitempty"`
	Title          []RichText             `json:"title,omitempty"`
	Description    []RichText             `json:"description,omitempty"`
	Properties     map[string]interface{} `json:"properties,omitempty"`
	DataSources    []DataSourceRef        `json:"data_sources,omitempty"`
	Archived       bool                   `json:"archived,omitempty"`
	InTrash        bool                   `json:"in_trash,omitempty"`
}

// PlainTitle returns the database title as plain text
func (d *Database) PlainTitle() string {
	return JoinPlainText(d.Title)
}

// DataSource is a sub-collection as returned by GET /data_sources/{id}
type DataSource struct {
	Object     string                 `json:"object,omitempty"`
	ID         string                 `json:"id"`
	Title      []RichText             `json:"title,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// PageParent addresses the page a database is created under
type PageParent struct {
	Type   string `json:"type"`
	PageID string `json:"page_id"`
}

// CreateDatabaseRequest is the body of POST /databases
type CreateDatabaseRequest struct {
	Parent      PageParent             `json:"parent"`
	Title       []RichText             `json:"title"`
	Description []RichText             `json:"description"`
	Properties  map[string]interface{} `json:"properties"`
}

// NewCreateDatabaseRequest fills the parent and text fields for a page-parented database
func NewCreateDatabaseRequest(parentPageID, title, description string, props map[string]interface{}) CreateDatabaseRequest {
	return CreateDatabaseRequest{
		Parent:      PageParent{Type: "page_id", PageID: parentPageID},
		Title:       PlainText(title),
		Description: PlainText(description),
		Properties:  props,
	}
}

// QueryRequest is the body of a database or data source query
type QueryRequest struct {
	Filter      interface{} `json:"filter,omitempty"`
	Sorts       interface{} `json:"sorts,omitempty"`
	PageSize    int         `json:"page_size,omitempty"`
	StartCursor string      `json:"start_cursor,omitempty"`
}

// QueryResponse is a page of records
type QueryResponse struct {
	Results    []map[string]interface{} `json:"results"`
	HasMore    bool                     `json:"has_more"`
	NextCursor *string                  `json:"next_cursor"`
}

// ChildDatabase is the payload of a child_database block
type ChildDatabase struct {
	Title string `json:"title"`
}

// Block is a child block of a page
type Block struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	CreatedTime    string         `json:"created_time,omitempty"`
	LastEditedTime string         `json:"last_edited_time,omitempty"`
	ChildDatabase  *ChildDatabase `json:"child_database,omitempty"`
}

// BlockList is a page of child blocks
type BlockList struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// User is the bot user behind the integration token
type User struct {
	Object string `json:"object,omitempty"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
}

// ErrorBody is the JSON error envelope of the workspace API
type ErrorBody struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
