package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrCollectionNotFound is returned when a collection doesn't exist
var ErrCollectionNotFound = errors.New("collection not found")

// ErrDuplicateSlug is returned when a user already has a collection with
// the requested slug
var ErrDuplicateSlug = errors.New("collection slug already in use")

// CollectionsStore abstracts collection operations
type CollectionsStore interface {
	// CreateCollection creates a collection. Returns ErrDuplicateSlug if
	// the user already has one with the same slug.
	CreateCollection(c model.Collection) (*model.Collection, error)

	// FindCollection retrieves a collection by id.
	// Returns ErrCollectionNotFound if it doesn't exist.
	FindCollection(id string) (*model.Collection, error)

	// FindCollectionBySlug retrieves a collection by owner email-local or id
	// plus slug. Used for the public collection and MCP routes.
	FindCollectionBySlug(userID, slug string) (*model.Collection, error)

	// ListCollections lists a user's collections.
	ListCollections(userID string) ([]model.Collection, error)

	// UpdateCollection updates name, description, public, and mcp_enabled.
	UpdateCollection(c model.Collection) (*model.Collection, error)

	// DeleteCollection removes a collection and its tool links.
	DeleteCollection(id string) error

	// AddTool links a tool into a collection. Position -1 appends.
	AddTool(collectionID, toolID string, position int) error

	// RemoveTool unlinks a tool and compacts positions.
	RemoveTool(collectionID, toolID string) error

	// ListTools returns a collection's tools in position order.
	ListTools(collectionID string) ([]ToolWithPackage, error)
}
