package bootstrap

import (
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/notionforge/backend/internal/application/services"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/pkg/constants"
)

//go:embed workflows.yaml
var workflowsYAML []byte

type workflowEntry struct {
	ID              string `yaml:"id"`
	models.Workflow `yaml:",inline"`
}

type workflowFile struct {
	Workflows []workflowEntry `yaml:"workflows"`
}

// Workflows parses the embedded predefined workflows
func Workflows() ([]models.Workflow, error) {
	return parseWorkflows(workflowsYAML)
}

func parseWorkflows(data []byte) ([]models.Workflow, error) {
	var file workflowFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse workflows: %w", err)
	}

	out := make([]models.Workflow, 0, len(file.Workflows))
	for _, entry := range file.Workflows {
		w := entry.Workflow
		w.ID = entry.ID
		switch {
		case w.ID == "":
			return nil, fmt.Errorf("workflow %q has no id", w.Name)
		case w.Trigger != constants.TriggerSchedule && w.Trigger != constants.TriggerWebhook:
			return nil, fmt.Errorf("workflow %q: unknown trigger %q", w.ID, w.Trigger)
		case w.Trigger == constants.TriggerSchedule && w.Schedule == "":
			return nil, fmt.Errorf("workflow %q: schedule trigger without schedule", w.ID)
		}
		out = append(out, w)
	}
	return out, nil
}

// InitializeWorkflows registers the predefined workflows with the automation service
func InitializeWorkflows(automation *services.AutomationService, logger *zap.Logger) error {
	workflows, err := Workflows()
	if err != nil {
		return err
	}
	automation.SeedWorkflows(workflows)
	logger.Info("workflows seeded", zap.Int("count", len(workflows)))
	return nil
}
