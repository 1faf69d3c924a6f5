package model

import "time"

// Extraction states for a tool's input schema.
const (
	ExtractionPending   = "pending"
	ExtractionExtracted = "extracted"
	ExtractionFailed    = "failed"
)

// Tool is a single exported tool of a Package. The input schema is extracted
// by the remote executor and stored as JSON Schema.
type Tool struct {
	ToolID          string    `gorm:"column:tool_id;primaryKey"`
	PackageID       string    `gorm:"column:package_id;not null;uniqueIndex:idx_tools_package_name"`
	Name            string    `gorm:"column:name;not null;uniqueIndex:idx_tools_package_name"`
	Description     string    `gorm:"column:description"`
	InputSchema     JSONMap   `gorm:"column:input_schema;type:jsonb"`
	Extraction      string    `gorm:"column:extraction;not null;default:pending"`
	ExtractionError string    `gorm:"column:extraction_error"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Tool) TableName() string {
	return "tools"
}
