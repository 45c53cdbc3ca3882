package entity

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"

	"loglens/pkg/contracts/domain"
)

// Registry holds the active definition set with compiled patterns.
// Safe for concurrent use; scans read it while the HTTP API may add
// definitions.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]domain.EntityDefinition
	compiled map[string]*regexp.Regexp
	partial  map[string]*regexp.Regexp
}

// NewRegistry builds an empty registry
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]domain.EntityDefinition),
		compiled: make(map[string]*regexp.Regexp),
		partial:  make(map[string]*regexp.Regexp),
	}
}

// NewDefaultRegistry builds a registry loaded with the built-in set
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range Defaults() {
		// built-in patterns always compile
		_ = r.Add(def)
	}
	return r
}

// Add compiles and stores a definition, replacing any existing one with
// the same name. Matching is case-insensitive.
func (r *Registry) Add(def domain.EntityDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("definition name is required")
	}
	if def.Priority < domain.PriorityStrong || def.Priority > domain.PriorityWeak {
		return fmt.Errorf("definition %s: priority %d out of range", def.Name, def.Priority)
	}

	compiled, err := regexp.Compile("(?i)" + def.Regex)
	if err != nil {
		return fmt.Errorf("definition %s: %w", def.Name, err)
	}
	partial, err := regexp.Compile("(?i)" + stripAnchors(def.Regex))
	if err != nil {
		return fmt.Errorf("definition %s (partial form): %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	r.compiled[def.Name] = compiled
	r.partial[def.Name] = partial
	return nil
}

// Get returns the named definition
func (r *Registry) Get(name string) (domain.EntityDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// List returns all definitions sorted by name
func (r *Registry) List() []domain.EntityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.EntityDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of definitions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Remove deletes the named definition, reporting whether it existed
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[name]; !ok {
		return false
	}
	delete(r.defs, name)
	delete(r.compiled, name)
	delete(r.partial, name)
	return true
}

// matcher returns the compiled pattern for a definition, in full or
// partial (anchors stripped) form.
func (r *Registry) matcher(name string, partialMode bool) *regexp.Regexp {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if partialMode {
		return r.partial[name]
	}
	return r.compiled[name]
}

// storedDefinition is the JSON file form: definitions are keyed by name
// so hand-editing the store stays simple.
type storedDefinition struct {
	Regex      string            `json:"regex"`
	Priority   int               `json:"priority"`
	Entity     domain.EntityType `json:"entity,omitempty"`
	DataFormat string            `json:"data_format,omitempty"`
}

// SaveJSON writes the registry to a definitions file
func (r *Registry) SaveJSON(path string) error {
	r.mu.RLock()
	stored := make(map[string]storedDefinition, len(r.defs))
	for name, def := range r.defs {
		stored[name] = storedDefinition{
			Regex:      def.Regex,
			Priority:   def.Priority,
			Entity:     def.Entity,
			DataFormat: def.DataFormat,
		}
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal definitions: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write definitions file: %w", err)
	}
	return nil
}

// LoadJSON replaces the registry contents from a definitions file.
// A missing file loads the built-in defaults instead.
func (r *Registry) LoadJSON(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		for _, def := range Defaults() {
			if err := r.Add(def); err != nil {
				return err
			}
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read definitions file: %w", err)
	}

	var stored map[string]storedDefinition
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse definitions file: %w", err)
	}

	for name, s := range stored {
		def := domain.EntityDefinition{
			Name:       name,
			Regex:      s.Regex,
			Priority:   s.Priority,
			Entity:     s.Entity,
			DataFormat: s.DataFormat,
		}
		if err := r.Add(def); err != nil {
			return fmt.Errorf("load definitions: %w", err)
		}
	}
	return nil
}

var (
	leadingAnchor  = regexp.MustCompile(`^\s*\^`)
	trailingAnchor = regexp.MustCompile(`\$\s*$`)
)

// stripAnchors removes leading ^ and trailing $ so a pattern can be used
// for substring search in partial mode.
func stripAnchors(pattern string) string {
	pattern = leadingAnchor.ReplaceAllString(pattern, "")
	return trailingAnchor.ReplaceAllString(pattern, "")
}
