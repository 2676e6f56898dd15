package constants

// Automation actions accepted by POST /api/automation
const (
	ActionListTemplates     = "list_templates"
	ActionGetTemplateSchema = "get_template_schema"
	ActionDeployTemplate    = "deploy_template"
	ActionCreateWorkflow    = "create_workflow"
	ActionTriggerWorkflow   = "trigger_workflow"
	ActionSmartSuggest      = "smart_suggest"
	ActionBulkCreate        = "bulk_create"
	ActionSaveTemplate      = "save_template"
	ActionUpdateTemplate    = "update_template"
	ActionDeleteTemplate    = "delete_template"
	ActionDuplicateTemplate = "duplicate_template"
	ActionExportTemplates   = "export_templates"
	ActionImportTemplates   = "import_templates"
)

// Monitor actions accepted by POST /api/monitor
const (
	ActionHealthCheck       = "health_check"
	ActionDatabaseAnalytics = "database_analytics"
	ActionOptimizeSchema    = "optimize_schema"
	ActionCleanupDatabases  = "cleanup_databases"
	ActionBackupTemplates   = "backup_templates"
	ActionUsageStatistics   = "usage_statistics"
	ActionAutoMaintenance   = "auto_maintenance"
)

// Workflow trigger types
const (
	TriggerSchedule = "schedule"
	TriggerWebhook  = "webhook"
)

// Multi-source creation modes
const (
	ModeMultiSource = "multi-source"
	ModeSeparate    = "separate"
)
