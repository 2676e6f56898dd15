package events

import "time"

// EventType defines the type of event in the system
type EventType string

const (
	// Provisioning Events
	DatabaseCreated      EventType = "database.created"
	DatabaseArchived     EventType = "database.archived"
	TemplateDeployed     EventType = "template.deployed"
	TemplateDeployFailed EventType = "template.deploy_failed"
	SamplePageCreated    EventType = "database.sample_created"

	// Record Events
	RecordCreated  EventType = "record.created"
	RecordUpdated  EventType = "record.updated"
	RecordArchived EventType = "record.archived"

	// Catalog Events
	TemplateSaved    EventType = "template.saved"
	TemplateDeleted  EventType = "template.deleted"
	TemplateImported EventType = "template.imported"

	// Synthesis Events
	SchemaGenerated EventType = "schema.generated"
	SchemaFallback  EventType = "schema.fallback"

	// Listing Events
	ListingServed EventType = "listing.served"

	// Workflow Events
	WorkflowTriggered EventType = "workflow.triggered"

	// System Events
	SystemStartup  EventType = "system.startup"
	RequestServed  EventType = "system.request_served"
	MaintenanceRun EventType = "system.maintenance"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// ListingPayload accompanies ListingServed
type ListingPayload struct {
	CacheHit bool
	Count    int
}

// DatabasePayload accompanies database events
type DatabasePayload struct {
	ID    string
	Title string
}

// RequestPayload accompanies RequestServed
type RequestPayload struct {
	Method  string
	Path    string
	Status  int
	Latency time.Duration
}
