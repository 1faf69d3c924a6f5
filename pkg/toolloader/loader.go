package toolloader

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tpmjs/tpmjs/pkg/executor"
	"github.com/tpmjs/tpmjs/pkg/tools"
)

// StoredTool is the storage layer's view of a registry tool.
type StoredTool struct {
	Package     string
	Version     string
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Source looks tools up in storage. An empty version means the package's
// latest synced version. A nil result with nil error means not found.
type Source interface {
	LookupTool(ctx context.Context, pkg, version, tool string) (*StoredTool, error)
}

// Runner extracts schemas from and executes tools in sandboxed packages.
// *executor.Client satisfies it.
type Runner interface {
	ExtractSchemas(ctx context.Context, pkg, version string) (*executor.ExtractResult, error)
	Execute(ctx context.Context, pkg, version, tool string, args map[string]interface{}) (*executor.ExecuteResult, error)
}

// LoadError reports one reference that could not be resolved.
type LoadError struct {
	Ref Ref
	Err error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Ref, e.Err)
}

// Loader resolves tool references into callable tools, caching per
// conversation.
type Loader struct {
	source Source
	runner Runner
	cache  *Cache
}

// NewLoader creates a loader over the given source, runner, and cache.
func NewLoader(source Source, runner Runner, cache *Cache) *Loader {
	return &Loader{source: source, runner: runner, cache: cache}
}

// Invalidate drops a conversation's cached tools, typically when the
// conversation is deleted.
func (l *Loader) Invalidate(conversationID string) {
	if l.cache != nil {
		l.cache.Invalidate(conversationID)
	}
}

// Load resolves refs concurrently and returns the tools it could resolve
// keyed by tool name, plus a LoadError per reference that failed. A failed
// reference never fails the whole load.
func (l *Loader) Load(ctx context.Context, conversationID string, refs []Ref) (map[string]*tools.Tool, []LoadError) {
	loaded := make(map[string]*tools.Tool, len(refs))
	var errs []LoadError

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref Ref) {
			defer wg.Done()
			tool, err := l.loadOne(ctx, conversationID, ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, LoadError{Ref: ref, Err: err})
				return
			}
			loaded[tool.Name] = tool
		}(ref)
	}
	wg.Wait()

	return loaded, errs
}

func (l *Loader) loadOne(ctx context.Context, conversationID string, ref Ref) (*tools.Tool, error) {
	if tool, ok := l.cache.Get(conversationID, ref); ok {
		return tool, nil
	}

	stored, err := l.source.LookupTool(ctx, ref.Package, ref.Version, ref.Tool)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.InputSchema == nil {
		stored, err = l.extract(ctx, ref)
		if err != nil {
			return nil, err
		}
	}

	tool := l.callable(stored)
	l.cache.Put(conversationID, ref, tool)
	return tool, nil
}

// extract falls back to live schema extraction when storage has no usable
// schema for the reference.
func (l *Loader) extract(ctx context.Context, ref Ref) (*StoredTool, error) {
	result, err := l.runner.ExtractSchemas(ctx, ref.Package, ref.Version)
	if err != nil {
		return nil, err
	}
	for _, t := range result.Tools {
		if t.Name != ref.Tool {
			continue
		}
		if t.Error != "" {
			return nil, fmt.Errorf("schema extraction failed: %s", t.Error)
		}
		return &StoredTool{
			Package:     result.Package,
			Version:     result.Version,
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, nil
	}
	return nil, fmt.Errorf("package %s@%s exports no tool %q", ref.Package, ref.Version, ref.Tool)
}

// callable wraps a stored tool in a handler that runs it via the executor.
func (l *Loader) callable(stored *StoredTool) *tools.Tool {
	pkg, version, name := stored.Package, stored.Version, stored.Name
	return &tools.Tool{
		Name:        name,
		Description: stored.Description,
		InputSchema: stored.InputSchema,
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			result, err := l.runner.Execute(ctx, pkg, version, name, args)
			if err != nil {
				return nil, err
			}
			var out interface{}
			if err := json.Unmarshal(result.Output, &out); err != nil {
				return string(result.Output), nil
			}
			return out, nil
		},
	}
}

// Merge overlays loaded tools onto base. Later sources win on name
// collision, so explicitly requested registry tools shadow built-ins.
func Merge(base map[string]*tools.Tool, overlays ...map[string]*tools.Tool) map[string]*tools.Tool {
	merged := make(map[string]*tools.Tool, len(base))
	for name, t := range base {
		merged[name] = t
	}
	for _, overlay := range overlays {
		for name, t := range overlay {
			merged[name] = t
		}
	}
	return merged
}
