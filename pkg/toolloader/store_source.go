package toolloader

import (
	"context"
	"errors"

	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// StoreSource adapts the tools store to the loader's Source interface.
type StoreSource struct {
	tools store.ToolsStore
}

// NewStoreSource creates a source over the tools store.
func NewStoreSource(tools store.ToolsStore) *StoreSource {
	return &StoreSource{tools: tools}
}

// LookupTool resolves a tool by package and tool name. A reference without
// a version resolves to the package's latest synced version.
func (s *StoreSource) LookupTool(ctx context.Context, pkg, version, tool string) (*StoredTool, error) {
	t, err := s.tools.FindTool(pkg, tool)
	if errors.Is(err, store.ErrToolNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if version == "" {
		version = t.PackageVersion
	}
	return &StoredTool{
		Package:     t.PackageName,
		Version:     version,
		Name:        t.Tool.Name,
		Description: t.Tool.Description,
		InputSchema: t.Tool.InputSchema,
	}, nil
}
