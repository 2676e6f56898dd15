package models

// CreatedDatabase is the result of a single database creation
type CreatedDatabase struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	CreatedTime string   `json:"created_time"`
	Properties  []string `json:"properties"`
}

// Provisioning item statuses
const (
	StatusSuccess = "success"
	StatusCreated = "created"
	StatusError   = "error"
)

// SeparateDatabase is one per-source database created in separate mode
type SeparateDatabase struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	ID          string   `json:"id,omitempty"`
	Properties  []string `json:"properties"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
}

// SamplePage is a sample record created for one data source
type SamplePage struct {
	DataSource string `json:"dataSource"`
	PageID     string `json:"pageId"`
	URL        string `json:"url,omitempty"`
}

// SeparateResult is the response of a separate-mode creation
type SeparateResult struct {
	Success    bool               `json:"success"`
	Databases  []SeparateDatabase `json:"databases"`
	SampleData []SamplePage       `json:"sampleData"`
	Message    string             `json:"message"`
	Errors     []SeparateDatabase `json:"errors"`
	HasErrors  bool               `json:"hasErrors"`
}

// DatabaseRef identifies a created container
type DatabaseRef struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SourceRef names one data source of a schema
type SourceRef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MergedSource reports how one additional data source was merged into the container
type MergedSource struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// MultiSourceResult is the response of a multi-source creation
type MultiSourceResult struct {
	Success     bool           `json:"success"`
	Database    DatabaseRef    `json:"database"`
	DataSources []SourceRef    `json:"dataSources"`
	Databases   []MergedSource `json:"databases"`
	SampleData  []SamplePage   `json:"sampleData"`
	Message     string         `json:"message"`
}

// DeployRequest deploys one catalog template
type DeployRequest struct {
	TemplateID        string          `json:"templateId"`
	Customizations    *Customizations `json:"customizations,omitempty"`
	IncludeSampleData bool            `json:"includeSampleData"`
	ParentPageID      string          `json:"parentPageId,omitempty"`
}

// DeployedDatabase is the result of a template deployment
type DeployedDatabase struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	SampleDataAdded bool   `json:"sampleDataAdded"`
}

// BulkItem is the outcome of one deployment in a bulk create
type BulkItem struct {
	Success    bool              `json:"success"`
	Database   *DeployedDatabase `json:"database,omitempty"`
	Error      string            `json:"error,omitempty"`
	TemplateID string            `json:"templateId,omitempty"`
}

// BulkResult is the response of a bulk create
type BulkResult struct {
	Results      []BulkItem `json:"results"`
	TotalCreated int        `json:"totalCreated"`
	TotalFailed  int        `json:"totalFailed"`
}

// ColumnReport compares the expected columns of a database with the actual ones
type ColumnReport struct {
	Success              bool              `json:"success"`
	ExpectedCount        int               `json:"expectedCount"`
	ActualCount          int               `json:"actualCount"`
	MissingProperties    []string          `json:"missingProperties"`
	ExtraProperties      []string          `json:"extraProperties"`
	TypeMismatches       map[string]string `json:"typeMismatches,omitempty"`
	AllPropertiesPresent bool              `json:"allPropertiesPresent"`
	Error                string            `json:"error,omitempty"`
}

// ColumnTestResult is the response of a standalone column test
type ColumnTestResult struct {
	Success     bool                    `json:"success"`
	DatabaseURL string                  `json:"databaseUrl"`
	DatabaseID  string                  `json:"databaseId"`
	TestResults map[string]ColumnReport `json:"testResults"`
	Message     string                  `json:"message"`
}
