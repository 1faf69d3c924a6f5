package model

import "time"

// Simulation records a completed playground run for later inspection.
type Simulation struct {
	SimulationID    string    `gorm:"column:simulation_id;primaryKey"`
	AgentID         string    `gorm:"column:agent_id;not null;index"`
	ConversationID  string    `gorm:"column:conversation_id;index"`
	Input           string    `gorm:"column:input"`
	Transcript      JSONMap   `gorm:"column:transcript;type:jsonb"`
	ToolInvocations int       `gorm:"column:tool_invocations"`
	Status          string    `gorm:"column:status;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Simulation) TableName() string {
	return "simulations"
}
