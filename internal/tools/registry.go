// Package tools provides the executable tool set consulted by the coder and
// file agents. Tools are registered once at construction and looked up by
// name; execution is delegated to external processes under a configured
// allow-list.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"taskseek/internal/logging"
)

// Tool errors.
var (
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	ErrToolNotFound          = errors.New("tool not found")
	ErrBinaryNotAllowed      = errors.New("binary not in allow-list")
)

// Tool is a named capability with an execution function.
type Tool struct {
	Name        string
	Description string

	// Languages lists the fenced-code-block tags this tool can run
	// (e.g. "python", "bash"). Empty for non-interpreter tools.
	Languages []string

	Execute func(ctx context.Context, args map[string]any) (string, error)
}

// Validate checks the tool definition is usable.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Execute == nil {
		return fmt.Errorf("tool %s has no execute function", t.Name)
	}
	return nil
}

// Registry holds all available tools and provides lookup functionality.
// It is thread-safe and supports registration at runtime.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]*Tool
	byLanguage map[string]*Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:      make(map[string]*Tool),
		byLanguage: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name already exists.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	r.tools[tool.Name] = tool
	for _, lang := range tool.Languages {
		r.byLanguage[lang] = tool
	}

	logging.ToolsDebug("Registered tool: %s (languages=%v)", tool.Name, tool.Languages)
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static tool registration at construction time.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// ForLanguage returns the interpreter tool for a fenced-code-block tag.
func (r *Registry) ForLanguage(lang string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byLanguage[lang]
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders a one-line-per-tool summary for inclusion in prompts.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for _, name := range names {
		out += fmt.Sprintf("- %s: %s\n", name, r.tools[name].Description)
	}
	return out
}
