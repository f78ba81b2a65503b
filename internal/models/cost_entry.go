package models

import "time"

// CostEntry records the token usage and derived cost of a single external
// model call. Entries are append-only; the core never mutates or deletes
// them.
type CostEntry struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"-"`

	Timestamp        time.Time `gorm:"index;not null" json:"timestamp"`
	Endpoint         string    `gorm:"type:varchar(64);not null" json:"endpoint"`
	Model            string    `gorm:"type:varchar(64);not null" json:"model"`
	PromptTokens     int       `gorm:"not null" json:"prompt_tokens"`
	CompletionTokens int       `gorm:"not null" json:"completion_tokens"`
	TotalTokens      int       `gorm:"not null" json:"total_tokens"`
	InputCostUSD     float64   `gorm:"type:decimal(10,6);not null" json:"input_cost_usd"`
	OutputCostUSD    float64   `gorm:"type:decimal(10,6);not null" json:"output_cost_usd"`
	TotalCostUSD     float64   `gorm:"type:decimal(10,6);not null" json:"total_cost_usd"`
}

// TableName keeps the historical table name used by earlier deployments.
func (CostEntry) TableName() string {
	return "ai_cost_entries"
}
