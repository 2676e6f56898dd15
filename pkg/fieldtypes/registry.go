package fieldtypes

import (
	"embed"
	"encoding/json"
	"sort"
	"sync"
)

//go:embed propertyKinds.json
var propertyKindsFS embed.FS

// Kind is a workspace property type as it appears on the wire
type Kind string

const (
	KindTitle          Kind = "title"
	KindRichText       Kind = "rich_text"
	KindNumber         Kind = "number"
	KindSelect         Kind = "select"
	KindMultiSelect    Kind = "multi_select"
	KindDate           Kind = "date"
	KindPeople         Kind = "people"
	KindFiles          Kind = "files"
	KindCheckbox       Kind = "checkbox"
	KindURL            Kind = "url"
	KindEmail          Kind = "email"
	KindPhoneNumber    Kind = "phone_number"
	KindFormula        Kind = "formula"
	KindRelation       Kind = "relation"
	KindRollup         Kind = "rollup"
	KindCreatedTime    Kind = "created_time"
	KindCreatedBy      Kind = "created_by"
	KindLastEditedTime Kind = "last_edited_time"
	KindLastEditedBy   Kind = "last_edited_by"
)

// KindDefinition represents a property kind configuration
type KindDefinition struct {
	Label        string `json:"label"`
	Description  string `json:"description"`
	Configurable bool   `json:"configurable"`
	Computed     bool   `json:"computed"`
	Sample       string `json:"sample"`
}

// Registry holds property kind definitions
type Registry struct {
	kinds map[Kind]KindDefinition
	mu    sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// GetRegistry returns the singleton property kind registry
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = &Registry{
			kinds: make(map[Kind]KindDefinition),
		}
		if err := defaultRegistry.loadFromEmbedded(); err != nil {
			panic("fieldtypes: invalid embedded propertyKinds.json: " + err.Error())
		}
	})
	return defaultRegistry
}

// loadFromEmbedded loads property kinds from the embedded JSON file
func (r *Registry) loadFromEmbedded() error {
	data, err := propertyKindsFS.ReadFile("propertyKinds.json")
	if err != nil {
		return err
	}

	var kinds map[Kind]KindDefinition
	if err := json.Unmarshal(data, &kinds); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = kinds
	return nil
}

// Get returns a kind definition by name
func (r *Registry) Get(kind Kind) (KindDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.kinds[kind]
	return def, ok
}

// IsKnown reports whether name is a recognized property kind
func (r *Registry) IsKnown(name string) bool {
	_, ok := r.Get(Kind(name))
	return ok
}

// IsComputed returns whether records carry no writable value for the kind
func (r *Registry) IsComputed(kind Kind) bool {
	def, ok := r.Get(kind)
	if !ok {
		return false
	}
	return def.Computed
}

// GetAll returns all registered kinds
func (r *Registry) GetAll() map[Kind]KindDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[Kind]KindDefinition, len(r.kinds))
	for k, v := range r.kinds {
		result[k] = v
	}
	return result
}

// Names returns the kind names, sorted
func (r *Registry) Names() []string {
	all := r.GetAll()
	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// IsKnown reports whether name is a recognized property kind
func IsKnown(name string) bool {
	return GetRegistry().IsKnown(name)
}

// IsComputed returns whether records carry no writable value for the kind
func IsComputed(kind Kind) bool {
	return GetRegistry().IsComputed(kind)
}
