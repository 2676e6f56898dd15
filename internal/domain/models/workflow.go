package models

// Workflow is a predefined automation that deploys a template
type Workflow struct {
	ID          string `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Trigger     string `json:"trigger" yaml:"trigger"`
	Schedule    string `json:"schedule,omitempty" yaml:"schedule"`
	Condition   string `json:"condition,omitempty" yaml:"condition"`
	Action      string `json:"action" yaml:"action"`
	Template    string `json:"template" yaml:"template"`
}

// WorkflowConfig is a configured workflow instance
type WorkflowConfig struct {
	ID             string          `json:"id"`
	Schedule       string          `json:"schedule,omitempty"`
	Timezone       string          `json:"timezone,omitempty"`
	Template       string          `json:"template"`
	Customizations *Customizations `json:"customizations,omitempty"`
	Status         string          `json:"status"`
	NextRun        string          `json:"nextRun"`
	LastRun        string          `json:"lastRun,omitempty"`
	LastError      string          `json:"lastError,omitempty"`
}

// TriggerResult reports a webhook or manual workflow trigger
type TriggerResult struct {
	Success    bool              `json:"success"`
	WorkflowID string            `json:"workflowId"`
	Triggered  bool              `json:"triggered"`
	Reason     string            `json:"reason,omitempty"`
	Database   *DeployedDatabase `json:"database,omitempty"`
}
