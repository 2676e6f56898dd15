package constants

// HTTP and API constants
const (
	// Content types
	ContentTypeJSON = "application/json"

	// HTTP Headers
	HeaderContentType        = "Content-Type"
	HeaderAuthorization      = "Authorization"
	HeaderXRequestID         = "X-Request-ID"
	HeaderNotionVersion      = "Notion-Version"
	HeaderXCache             = "X-Cache"
	HeaderXResponseTime      = "X-Response-Time"
	HeaderXDatabaseCount     = "X-Database-Count"
	HeaderCacheControl       = "Cache-Control"
	HeaderContentDisposition = "Content-Disposition"

	// Auth
	BearerPrefix = "Bearer "

	// Response Keys
	ResponseError   = "error"
	ResponseSuccess = "success"
	ResponseMessage = "message"
)

// Cache header values
const (
	CacheHit          = "HIT"
	CacheMiss         = "MISS"
	ListingCacheKey   = "databases_list"
	ListingCacheValue = "public, max-age=300"
)

// Query parameter constants
const (
	ParamID           = "id"
	ParamDatabaseID   = "database_id"
	ParamDataSourceID = "data_source_id"
	ParamInfo         = "info"
	ParamPageSize     = "page_size"
	ParamStartCursor  = "start_cursor"
	ParamTest         = "test"
	ParamURL          = "url"
)

// Environment variables
const (
	EnvNotionAPIKey       = "NOTION_API_KEY"
	EnvNotionParentPageID = "NOTION_PARENT_PAGE_ID"
	EnvNotionDatabaseID   = "NOTION_DATABASE_ID"
	EnvNotionAPIVersion   = "NOTION_API_VERSION"
	EnvNotionBaseURL      = "NOTION_BASE_URL"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvPort               = "PORT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvListingCacheTTL    = "LISTING_CACHE_TTL"
	EnvEnrichBatchSize    = "ENRICH_BATCH_SIZE"
)

// Workflow scheduling
const (
	ScheduleCheckInterval    = 60 // Seconds between scheduler checks
	ScheduleMaxRuntimeMins   = 10 // Maximum deployment time before timeout (minutes)
	ScheduleDefaultTimezone  = "UTC"
	ManualTriggerRequired    = "Manual trigger required"
	WorkflowStatusConfigured = "configured"
)
