package model

import "time"

// Agent is a user-configured chat agent bound to a collection of tools.
type Agent struct {
	AgentID      string    `gorm:"column:agent_id;primaryKey"`
	UserID       string    `gorm:"column:user_id;not null;index"`
	CollectionID string    `gorm:"column:collection_id;index"`
	Name         string    `gorm:"column:name;not null"`
	Model        string    `gorm:"column:model;not null"`
	SystemPrompt string    `gorm:"column:system_prompt"`
	Temperature  float64   `gorm:"column:temperature;default:1"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Agent) TableName() string {
	return "agents"
}
