package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrToolNotFound is returned when a tool doesn't exist
var ErrToolNotFound = errors.New("tool not found")

// ToolWithPackage is a tool joined with its package's identity.
type ToolWithPackage struct {
	Tool           model.Tool
	PackageName    string
	PackageVersion string
}

// ToolsStore abstracts registry tool operations
type ToolsStore interface {
	// ListToolsByPackage returns a package's tools by npm package name.
	ListToolsByPackage(packageName string) ([]model.Tool, error)

	// FindTool retrieves one tool by npm package name and tool name.
	// Returns ErrToolNotFound if it doesn't exist.
	FindTool(packageName, toolName string) (*ToolWithPackage, error)

	// FindToolByID retrieves one tool by id.
	FindToolByID(toolID string) (*ToolWithPackage, error)

	// SearchTools matches q against tool names and descriptions across all
	// packages, returning one page and the unpaged total.
	SearchTools(q string, limit, offset int) ([]ToolWithPackage, int64, error)

	// ReplaceTools swaps a package's tool set for the given one, keeping
	// tool ids stable for tools whose name survives.
	ReplaceTools(packageID string, tools []model.Tool) error
}
