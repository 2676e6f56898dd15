package models

import (
	"github.com/notionforge/backend/internal/domain/schema"
	"github.com/notionforge/backend/pkg/utils"
)

// Template is a named, reusable database schema
type Template struct {
	Title            string                   `json:"title" yaml:"title"`
	Description      string                   `json:"description,omitempty" yaml:"description"`
	Properties       schema.PropertyMap       `json:"properties" yaml:"properties"`
	SampleData       []map[string]interface{} `json:"sampleData,omitempty" yaml:"sampleData"`
	Custom           bool                     `json:"custom,omitempty" yaml:"-"`
	Created          string                   `json:"created,omitempty" yaml:"-"`
	Updated          string                   `json:"updated,omitempty" yaml:"-"`
	Imported         string                   `json:"imported,omitempty" yaml:"-"`
	OriginalTemplate string                   `json:"originalTemplate,omitempty" yaml:"-"`
}

// TemplateSummary is the list view of a template
type TemplateSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PropertyCount int    `json:"propertyCount"`
	HasSampleData bool   `json:"hasSampleData"`
	Custom        bool   `json:"custom"`
}

// Summary builds the list view of t under id
func (t *Template) Summary(id string) TemplateSummary {
	return TemplateSummary{
		ID:            id,
		Title:         t.Title,
		Description:   t.Description,
		PropertyCount: len(t.Properties),
		HasSampleData: t.SampleData != nil,
		Custom:        t.Custom,
	}
}

// AsSchema presents the template as a one-source schema
func (t *Template) AsSchema() schema.MultiSourceSchema {
	return schema.MultiSourceSchema{
		Title:       t.Title,
		Description: t.Description,
		DataSources: []schema.DataSourceSchema{t.AsDataSource()},
	}
}

// AsDataSource presents the template as a data source named after its title
func (t *Template) AsDataSource() schema.DataSourceSchema {
	return schema.DataSourceSchema{
		Name:        t.Title,
		Description: t.Description,
		Properties:  t.Properties,
	}
}

// Clone returns a deep copy so callers can mutate properties freely
func (t *Template) Clone() *Template {
	c := *t
	if t.Properties != nil {
		c.Properties = utils.DeepCopyMap(t.Properties)
	}
	if t.SampleData != nil {
		c.SampleData = make([]map[string]interface{}, len(t.SampleData))
		for i, row := range t.SampleData {
			c.SampleData[i] = utils.DeepCopyMap(row)
		}
	}
	return &c
}

// TemplateDetail is the editing view returned with a schema
type TemplateDetail struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Properties  schema.PropertyMap       `json:"properties"`
	SampleData  []map[string]interface{} `json:"sampleData,omitempty"`
}

// PromptTemplate is a catalog entry as offered to the model, with its data source form
type PromptTemplate struct {
	ID            string                  `json:"id"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description,omitempty"`
	Properties    schema.PropertyMap      `json:"properties"`
	PropertyCount int                     `json:"propertyCount,omitempty"`
	AsDataSource  schema.DataSourceSchema `json:"asDataSource"`
}

// ImportResult reports the outcome of a template import
type ImportResult struct {
	Imported []string      `json:"imported"`
	Skipped  []string      `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError is a template that could not be imported
type ImportError struct {
	TemplateID string `json:"templateId"`
	Error      string `json:"error"`
}

// TemplateExport is the document produced by export and accepted by import
type TemplateExport struct {
	Templates  map[string]*Template `json:"templates" yaml:"templates"`
	ExportDate string               `json:"exportDate" yaml:"exportDate"`
	Version    string               `json:"version" yaml:"version"`
}

// Customizations override parts of a template when it is deployed or duplicated
type Customizations struct {
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// Apply returns a copy of t with the customizations merged in
func (c *Customizations) Apply(t *Template) *Template {
	out := t.Clone()
	if c == nil {
		return out
	}
	if c.Title != "" {
		out.Title = c.Title
	}
	if c.Description != "" {
		out.Description = c.Description
	}
	if len(c.Properties) > 0 {
		if out.Properties == nil {
			out.Properties = schema.PropertyMap{}
		}
		for name, def := range c.Properties {
			out.Properties[name] = utils.DeepCopy(def)
		}
	}
	return out
}
