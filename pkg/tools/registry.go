package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds named tools behind a read-write mutex.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// NewBuiltinRegistry creates a registry preloaded with every built-in tool.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(HTMLToMarkdown())
	r.Register(SitemapParse())
	r.Register(PRDGenerate())
	r.Register(ADRGenerate())
	r.Register(NDAGenerate())
	r.Register(NPSAnalyze())
	return r
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Get returns the named tool, or false if absent.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute runs the named tool with args.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t.Handler(ctx, args)
}
