package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/notionforge/backend/pkg/errors"
)

// ActionHandler runs one named action of an action endpoint.
// payload is the raw "payload" member of the request and may be empty.
type ActionHandler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Download is an action result delivered as a file attachment
type Download struct {
	Filename string
	Format   string
	Body     interface{}
}

// ActionHandlerRegistry maps action names to handlers
type ActionHandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]ActionHandler
}

// NewActionHandlerRegistry creates a new empty registry
func NewActionHandlerRegistry() *ActionHandlerRegistry {
	return &ActionHandlerRegistry{
		handlers: make(map[string]ActionHandler),
	}
}

// Register adds a handler. A handler already registered under name is replaced.
func (r *ActionHandlerRegistry) Register(name string, handler ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Get retrieves the handler for name, or nil
func (r *ActionHandlerRegistry) Get(name string) ActionHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name]
}

// Has checks if a handler is registered for name
func (r *ActionHandlerRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Types returns all registered action names, sorted
func (r *ActionHandlerRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dispatch runs the handler registered for action
func (r *ActionHandlerRegistry) Dispatch(ctx context.Context, action string, payload json.RawMessage) (interface{}, error) {
	handler := r.Get(action)
	if handler == nil {
		return nil, apperrors.ErrInvalidAction
	}
	return handler(ctx, payload)
}

// decodePayload unmarshals an action payload into v; an empty payload leaves v unchanged
func decodePayload(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return apperrors.NewValidationError("payload", fmt.Sprintf("invalid payload: %v", err))
	}
	return nil
}
