package constants

// Notion API versions
const (
	NotionVersionLegacy  = "2022-06-28"
	NotionVersionCurrent = "2025-09-03"
	NotionBaseURL        = "https://api.notion.com/v1"
)

// Generative models, in preference order
var GeminiModels = []string{"gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-flash"}

// Listing pipeline defaults
const (
	DefaultPageSize        = 100
	DefaultEnrichBatchSize = 5
	DiscoveryPageCeiling   = 50
	UntitledTitle          = "Untitled"
	NewDatabaseTitle       = "New Database"
	PrivateMarker          = "(Private)"
	ArchivedProperty       = "archived"
)
