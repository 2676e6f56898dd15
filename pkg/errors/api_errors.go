package errors

import "errors"

// Sentinel errors shared by the services
var (
	ErrNoAvailableModel = errors.New("no available models")
	ErrNoProperties     = errors.New("no properties found")
	ErrNoDataSources    = errors.New("no data sources found in database")
)

// ErrInvalidAction is returned for an action name no registry knows.
// It is a ValidationError so it maps to 400.
var ErrInvalidAction = &ValidationError{Field: "action", Message: "Invalid action"}
