package schema

import (
	"fmt"
	"sort"

	"github.com/notionforge/backend/pkg/fieldtypes"
)

// PropertyMap maps a property name to its wire definition
type PropertyMap map[string]interface{}

// Names returns the property names, sorted
func (p PropertyMap) Names() []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DataSourceSchema describes one data source of a multi-source database
type DataSourceSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Properties  PropertyMap `json:"properties"`
}

// MultiSourceSchema is the schema shape produced by synthesis and consumed by provisioning
type MultiSourceSchema struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	DataSources []DataSourceSchema `json:"dataSources"`
}

// Definition is a single-database schema
type Definition struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Properties  PropertyMap `json:"properties"`
}

// Validate checks the multi-source contract
func (s *MultiSourceSchema) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("database title is required")
	}
	if s.DataSources == nil {
		return fmt.Errorf("dataSources is required")
	}
	for i, ds := range s.DataSources {
		if ds.Name == "" {
			return fmt.Errorf("dataSources[%d]: data source name is required", i)
		}
		if ds.Properties == nil {
			return fmt.Errorf("dataSources[%d]: properties are required", i)
		}
		if err := validateProperties(ds.Properties); err != nil {
			return fmt.Errorf("dataSources[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single-database schema
func (d *Definition) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("database title is required")
	}
	if d.Properties == nil {
		return fmt.Errorf("properties are required")
	}
	return validateProperties(d.Properties)
}

// validateProperties checks each property and allows at most one title.
// A schema without one gets the default title property at provisioning.
func validateProperties(props PropertyMap) error {
	var titles []string
	for _, name := range props.Names() {
		if err := fieldtypes.Validate(name, props[name]); err != nil {
			return err
		}
		if kind, _ := fieldtypes.KindOf(props[name]); kind == fieldtypes.KindTitle {
			titles = append(titles, name)
		}
	}
	if len(titles) > 1 {
		return fmt.Errorf("only one title property is allowed, found %v", titles)
	}
	return nil
}
