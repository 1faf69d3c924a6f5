package model

import "time"

// Collection is a user-curated named set of tools, optionally exposed as an
// MCP server.
type Collection struct {
	CollectionID string    `gorm:"column:collection_id;primaryKey"`
	UserID       string    `gorm:"column:user_id;not null;uniqueIndex:idx_collections_user_slug"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex:idx_collections_user_slug"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description"`
	Public       bool      `gorm:"column:public"`
	MCPEnabled   bool      `gorm:"column:mcp_enabled"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Collection) TableName() string {
	return "collections"
}

// CollectionTool links a tool into a collection at a position.
type CollectionTool struct {
	CollectionID string    `gorm:"column:collection_id;primaryKey"`
	ToolID       string    `gorm:"column:tool_id;primaryKey"`
	Position     int       `gorm:"column:position;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CollectionTool) TableName() string {
	return "collection_tools"
}
