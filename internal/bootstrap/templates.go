package bootstrap

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/notionforge/backend/internal/application/services"
	"github.com/notionforge/backend/internal/domain/models"
)

//go:embed system_templates.yaml
var systemTemplatesYAML []byte

type templateEntry struct {
	ID              string `yaml:"id"`
	models.Template `yaml:",inline"`
}

type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

// SystemTemplates parses the embedded system templates, returning their ids
// in declaration order
func SystemTemplates() ([]string, map[string]*models.Template, error) {
	return parseTemplates(systemTemplatesYAML)
}

func parseTemplates(data []byte) ([]string, map[string]*models.Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse system templates: %w", err)
	}

	ids := make([]string, 0, len(file.Templates))
	templates := make(map[string]*models.Template, len(file.Templates))
	for i, entry := range file.Templates {
		if entry.ID == "" {
			return nil, nil, fmt.Errorf("system template %d has no id", i)
		}
		if _, dup := templates[entry.ID]; dup {
			return nil, nil, fmt.Errorf("duplicate system template %q", entry.ID)
		}
		t, err := normalize(entry.Template)
		if err != nil {
			return nil, nil, fmt.Errorf("system template %q: %w", entry.ID, err)
		}
		ids = append(ids, entry.ID)
		templates[entry.ID] = t
	}
	return ids, templates, nil
}

// normalize passes t through JSON so numbers and nested maps have the
// same shapes as templates received over HTTP
func normalize(t models.Template) (*models.Template, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var out models.Template
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitializeTemplates seeds the catalog with the system templates
func InitializeTemplates(catalog *services.TemplateCatalog, logger *zap.Logger) error {
	ids, templates, err := SystemTemplates()
	if err != nil {
		return err
	}
	catalog.SeedSystem(ids, templates)
	logger.Info("system templates seeded", zap.Int("count", len(ids)), zap.Strings("ids", ids))
	return nil
}
