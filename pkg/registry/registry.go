package registry

import (
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"
)

// placeholderPattern matches {{variable}} placeholders. Variable names
// are identifiers; surrounding whitespace inside the braces is allowed.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Version is one registered prompt template version.
type Version struct {
	// Prompt is the prompt name the version belongs to.
	Prompt string `json:"prompt"`

	// Version is the version identifier, unique within the prompt.
	Version string `json:"version"`

	// Template is the prompt text with {{variable}} placeholders.
	Template string `json:"template"`

	// CreatedAt is when the version was first registered. Re-registering
	// the same version keeps it.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the version was last registered.
	UpdatedAt time.Time `json:"updated_at"`

	// Metadata is arbitrary caller-supplied annotation.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Variables returns the distinct placeholder names in the template, in
// first-appearance order.
func (v *Version) Variables() []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(v.Template, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

// Registry is a thread-safe store of versioned prompt templates.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]map[string]*Version
	logger  *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		prompts: make(map[string]map[string]*Version),
		logger:  logger.With("component", "registry"),
	}
}

// Register adds or replaces a prompt template version. Re-registering an
// existing version overwrites its template and metadata and bumps
// UpdatedAt, but keeps the original CreatedAt.
func (r *Registry) Register(prompt, version, template string, metadata map[string]string) *Version {
	now := time.Now()
	v := &Version{
		Prompt:    prompt,
		Version:   version,
		Template:  template,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}

	r.mu.Lock()
	versions, ok := r.prompts[prompt]
	if !ok {
		versions = make(map[string]*Version)
		r.prompts[prompt] = versions
	}
	if prev, exists := versions[version]; exists {
		v.CreatedAt = prev.CreatedAt
	}
	versions[version] = v
	r.mu.Unlock()

	r.logger.Debug("prompt version registered",
		"prompt", prompt,
		"version", version,
		"variables", len(v.Variables()),
	)
	return v
}

// Get returns a registered version.
func (r *Registry) Get(prompt, version string) (*Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[prompt]
	if !ok {
		return nil, &NotFoundError{Prompt: prompt}
	}
	v, ok := versions[version]
	if !ok {
		return nil, &NotFoundError{Prompt: prompt, Version: version}
	}
	return v, nil
}

// Latest returns the most recently updated version of a prompt.
func (r *Registry) Latest(prompt string) (*Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Version
	for _, v := range r.prompts[prompt] {
		if latest == nil || v.UpdatedAt.After(latest.UpdatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, &NotFoundError{Prompt: prompt}
	}
	return latest, nil
}

// Versions returns the version identifiers registered for a prompt,
// sorted lexically.
func (r *Registry) Versions(prompt string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.prompts[prompt]))
	for version := range r.prompts[prompt] {
		out = append(out, version)
	}
	sort.Strings(out)
	return out
}

// Prompts returns all registered prompt names, sorted lexically.
func (r *Registry) Prompts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.prompts))
	for name := range r.prompts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Render substitutes placeholder values into a registered template.
// Every placeholder must have a value; the ones without are reported
// together in a MissingVariableError. Values with no matching
// placeholder are ignored.
func (r *Registry) Render(prompt, version string, vars map[string]string) (string, error) {
	v, err := r.Get(prompt, version)
	if err != nil {
		return "", err
	}

	var missing []string
	seen := make(map[string]bool)
	rendered := placeholderPattern.ReplaceAllStringFunc(v.Template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", &MissingVariableError{Prompt: prompt, Version: version, Variables: missing}
	}
	return rendered, nil
}
