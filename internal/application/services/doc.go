// Package services provides the business logic layer for NotionForge.
//
// This package contains the service implementations that handle:
//   - Protocol detection for containers and their data sources (VersionResolver)
//   - Record list/get/create/update/archive with private field masking (RecordGateway)
//   - Cached, batch-enriched database listings (ListingService)
//   - Model-backed schema generation and extraction (SchemaSynthesis)
//   - The in-process template store (TemplateCatalog)
//   - Database creation from schemas and templates (ProvisioningService)
//   - Template/workflow automation actions (AutomationService)
//   - Health, analytics and maintenance actions (MonitorService)
//   - Event publishing and usage counters (EventBus)
//
// All services receive their collaborators by constructor and are wired
// together by ServiceManager.
package services
