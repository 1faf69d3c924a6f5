package toolloader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpmjs/tpmjs/pkg/executor"
	"github.com/tpmjs/tpmjs/pkg/tools"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{in: "sitemap-tools/parse", want: Ref{Package: "sitemap-tools", Tool: "parse"}},
		{in: "sitemap-tools@1.2.0/parse", want: Ref{Package: "sitemap-tools", Version: "1.2.0", Tool: "parse"}},
		{in: "@acme/sitemap/parse", want: Ref{Package: "@acme/sitemap", Tool: "parse"}},
		{in: "@acme/sitemap@1.2.0/parse", want: Ref{Package: "@acme/sitemap", Version: "1.2.0", Tool: "parse"}},
		{in: "no-tool", wantErr: true},
		{in: "@scope-only", wantErr: true},
		{in: "pkg@/tool", wantErr: true},
		{in: "@acme/pkg/too/deep", wantErr: true},
		{in: "/tool", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "@acme/sitemap@1.2.0/parse", Ref{Package: "@acme/sitemap", Version: "1.2.0", Tool: "parse"}.String())
	assert.Equal(t, "sitemap-tools/parse", Ref{Package: "sitemap-tools", Tool: "parse"}.String())
}

func newTestCache(ttl time.Duration, now *time.Time) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     func() time.Time { return *now },
		done:    make(chan struct{}),
	}
}

func TestCacheTTLAndInvalidate(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c := newTestCache(time.Minute, &now)
	defer c.Close()

	ref := Ref{Package: "p", Tool: "t"}
	c.Put("conv-1", ref, &tools.Tool{Name: "t"})
	c.Put("conv-2", ref, &tools.Tool{Name: "t"})

	_, ok := c.Get("conv-1", ref)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("conv-1", ref)
	assert.False(t, ok, "expired entry should miss")

	now = now.Add(-2 * time.Minute)
	c.Invalidate("conv-1")
	_, ok = c.Get("conv-1", ref)
	assert.False(t, ok)
	_, ok = c.Get("conv-2", ref)
	assert.True(t, ok, "other conversations keep their entries")
}

func TestCacheSweep(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c := newTestCache(time.Minute, &now)
	defer c.Close()

	c.Put("conv-1", Ref{Package: "p", Tool: "old"}, &tools.Tool{Name: "old"})
	now = now.Add(2 * time.Minute)
	c.Put("conv-1", Ref{Package: "p", Tool: "new"}, &tools.Tool{Name: "new"})

	c.sweep()

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Len(t, c.entries, 1)
}

type fakeSource struct {
	mu      sync.Mutex
	tools   map[string]*StoredTool
	lookups int
	err     error
}

func (s *fakeSource) LookupTool(ctx context.Context, pkg, version, tool string) (*StoredTool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	return s.tools[pkg+"/"+tool], nil
}

type fakeRunner struct {
	mu       sync.Mutex
	extracts int
	executes int
	extract  *executor.ExtractResult
	output   string
	err      error
}

func (r *fakeRunner) ExtractSchemas(ctx context.Context, pkg, version string) (*executor.ExtractResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extracts++
	return r.extract, r.err
}

func (r *fakeRunner) Execute(ctx context.Context, pkg, version, tool string, args map[string]interface{}) (*executor.ExecuteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executes++
	if r.err != nil {
		return nil, r.err
	}
	return &executor.ExecuteResult{Output: []byte(r.output)}, nil
}

func TestLoaderResolvesFromStore(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{tools: map[string]*StoredTool{
		"@acme/sitemap/parse": {
			Package:     "@acme/sitemap",
			Version:     "1.2.0",
			Name:        "parse",
			Description: "Parse a sitemap",
			InputSchema: map[string]interface{}{"type": "object"},
		},
	}}
	runner := &fakeRunner{output: `{"urls": 3}`}
	loader := NewLoader(source, runner, newTestCache(time.Minute, &now))

	ref := Ref{Package: "@acme/sitemap", Tool: "parse"}
	loaded, errs := loader.Load(context.Background(), "conv-1", []Ref{ref})
	require.Empty(t, errs)
	require.Contains(t, loaded, "parse")
	assert.Zero(t, runner.extracts, "stored schema should not trigger extraction")

	out, err := loaded["parse"].Handler(context.Background(), map[string]interface{}{"url": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"urls": float64(3)}, out)
	assert.Equal(t, 1, runner.executes)
}

func TestLoaderFallsBackToExtraction(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{tools: map[string]*StoredTool{}}
	runner := &fakeRunner{
		extract: &executor.ExtractResult{
			Package: "@acme/sitemap",
			Version: "1.2.0",
			Tools: []executor.ExtractedTool{
				{Name: "parse", Description: "Parse", InputSchema: map[string]interface{}{"type": "object"}},
			},
		},
	}
	loader := NewLoader(source, runner, newTestCache(time.Minute, &now))

	loaded, errs := loader.Load(context.Background(), "conv-1", []Ref{{Package: "@acme/sitemap", Version: "1.2.0", Tool: "parse"}})
	require.Empty(t, errs)
	assert.Contains(t, loaded, "parse")
	assert.Equal(t, 1, runner.extracts)
}

func TestLoaderCachesPerConversation(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{tools: map[string]*StoredTool{
		"p/t": {Package: "p", Name: "t", InputSchema: map[string]interface{}{"type": "object"}},
	}}
	loader := NewLoader(source, &fakeRunner{}, newTestCache(time.Minute, &now))

	ref := Ref{Package: "p", Tool: "t"}
	loader.Load(context.Background(), "conv-1", []Ref{ref})
	loader.Load(context.Background(), "conv-1", []Ref{ref})
	assert.Equal(t, 1, source.lookups)

	loader.Load(context.Background(), "conv-2", []Ref{ref})
	assert.Equal(t, 2, source.lookups, "cache is conversation scoped")
}

func TestLoaderPartialFailure(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{tools: map[string]*StoredTool{
		"good/t": {Package: "good", Name: "t", InputSchema: map[string]interface{}{"type": "object"}},
	}}
	runner := &fakeRunner{err: errors.New("executor down")}
	loader := NewLoader(source, runner, newTestCache(time.Minute, &now))

	loaded, errs := loader.Load(context.Background(), "conv-1", []Ref{
		{Package: "good", Tool: "t"},
		{Package: "bad", Tool: "t"},
	})

	assert.Contains(t, loaded, "t")
	require.Len(t, errs, 1)
	assert.Equal(t, "bad", errs[0].Ref.Package)
}

func TestMerge(t *testing.T) {
	base := map[string]*tools.Tool{
		"a": {Name: "a", Description: "builtin"},
		"b": {Name: "b"},
	}
	overlay := map[string]*tools.Tool{
		"a": {Name: "a", Description: "registry"},
		"c": {Name: "c"},
	}

	merged := Merge(base, overlay)
	assert.Len(t, merged, 3)
	assert.Equal(t, "registry", merged["a"].Description)
	assert.Equal(t, "builtin", base["a"].Description, "base map is not mutated")
}
