package models

// Health statuses
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
	CheckHealthy    = "healthy"
	CheckWarning    = "warning"
	CheckError      = "error"
)

// HealthCheck is the outcome of one dependency check
type HealthCheck struct {
	Service      string   `json:"service"`
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	ResponseTime int64    `json:"responseTime,omitempty"`
	Error        string   `json:"error,omitempty"`
	Missing      []string `json:"missing,omitempty"`
}

// HealthReport aggregates every dependency check
type HealthReport struct {
	Timestamp string        `json:"timestamp"`
	Status    string        `json:"status"`
	Checks    []HealthCheck `json:"checks"`
	Warnings  []string      `json:"warnings"`
	Errors    []string      `json:"errors"`
}

// TrendPoint counts databases created on one day
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DatabaseAnalytics summarizes the databases under the parent page
type DatabaseAnalytics struct {
	TotalDatabases  int            `json:"totalDatabases"`
	RecentDatabases int            `json:"recentDatabases"`
	DatabaseTypes   map[string]int `json:"databaseTypes"`
	CreationTrend   []TrendPoint   `json:"creationTrend"`
}

// SchemaSuggestion is one optimization hint for a database schema
type SchemaSuggestion struct {
	Type     string `json:"type"`
	Property string `json:"property,omitempty"`
	Message  string `json:"message"`
	Impact   string `json:"impact"`
}

// SchemaOptimization is the optimize_schema response
type SchemaOptimization struct {
	Success           bool               `json:"success"`
	Suggestions       []SchemaSuggestion `json:"suggestions"`
	DatabaseTitle     string             `json:"databaseTitle"`
	OptimizationScore int                `json:"optimizationScore"`
	Timestamp         string             `json:"timestamp"`
}

// CleanupCandidate is an old, empty database eligible for archiving
type CleanupCandidate struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Created string `json:"created"`
	Empty   bool   `json:"empty"`
	Reason  string `json:"reason"`
}

// CleanupResult is the cleanup_databases response
type CleanupResult struct {
	Success              bool               `json:"success"`
	DryRun               bool               `json:"dryRun"`
	CandidatesForCleanup int                `json:"candidatesForCleanup"`
	Candidates           []CleanupCandidate `json:"candidates"`
	Cleaned              int                `json:"cleaned"`
	Message              string             `json:"message"`
}

// BackupMetadata counts the templates in a backup
type BackupMetadata struct {
	TotalTemplates  int `json:"totalTemplates"`
	CustomTemplates int `json:"customTemplates"`
	SystemTemplates int `json:"systemTemplates"`
}

// TemplateBackup is a snapshot of the whole catalog
type TemplateBackup struct {
	Timestamp string               `json:"timestamp"`
	Version   string               `json:"version"`
	Templates map[string]*Template `json:"templates"`
	Metadata  BackupMetadata       `json:"metadata"`
}

// TemplateUse counts deployments of one template
type TemplateUse struct {
	ID   string `json:"id"`
	Uses int64  `json:"uses"`
}

// UsageMetrics are in-process counters since startup
type UsageMetrics struct {
	TotalRequests         int64         `json:"totalRequests"`
	FailedRequests        int64         `json:"failedRequests"`
	AverageResponseTime   int64         `json:"averageResponseTime"`
	SuccessfulDeployments int64         `json:"successfulDeployments"`
	FailedDeployments     int64         `json:"failedDeployments"`
	DatabasesCreated      int64         `json:"databasesCreated"`
	DatabasesArchived     int64         `json:"databasesArchived"`
	SamplePagesCreated    int64         `json:"samplePagesCreated"`
	RecordsCreated        int64         `json:"recordsCreated"`
	RecordsUpdated        int64         `json:"recordsUpdated"`
	RecordsArchived       int64         `json:"recordsArchived"`
	SchemasGenerated      int64         `json:"schemasGenerated"`
	SchemaFallbacks       int64         `json:"schemaFallbacks"`
	ListingsServed        int64         `json:"listingsServed"`
	WorkflowsTriggered    int64         `json:"workflowsTriggered"`
	TemplatesSaved        int64         `json:"templatesSaved"`
	TemplatesImported     int64         `json:"templatesImported"`
	TemplatesDeleted      int64         `json:"templatesDeleted"`
	PopularTemplates      []TemplateUse `json:"popularTemplates"`
	UptimeSeconds         int64         `json:"uptimeSeconds"`
}

// UsageStatistics is the usage_statistics body
type UsageStatistics struct {
	TimeRange string       `json:"timeRange"`
	Timestamp string       `json:"timestamp"`
	Metrics   UsageMetrics `json:"metrics"`
}

// MaintenanceTask is one step of an automatic maintenance run
type MaintenanceTask struct {
	Task   string      `json:"task"`
	Status string      `json:"status"`
	Result interface{} `json:"result"`
}

// MaintenanceReport is the auto_maintenance body
type MaintenanceReport struct {
	Timestamp      string            `json:"timestamp"`
	TasksCompleted int               `json:"tasksCompleted"`
	TasksFailed    int               `json:"tasksFailed"`
	Tasks          []MaintenanceTask `json:"tasks"`
}
