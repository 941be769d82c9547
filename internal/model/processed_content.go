package model

import "time"

// ProcessedContent is the ORM model for the processed_contents table. Each
// processing attempt writes a new row; at most one row per file carries
// Current=true. Rows are read-only after creation except for the Current
// flag flip on supersession.
type ProcessedContent struct {
	ID               uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID           string  `gorm:"type:varchar(64);not null;index" json:"fileId"`
	Attempt          int     `gorm:"not null" json:"attempt"`
	UnifiedText      string  `gorm:"type:longtext" json:"unifiedText"`
	ExtractionMethod string  `gorm:"type:varchar(32);not null" json:"extractionMethod"`
	ConfidenceScore  float64 `gorm:"not null" json:"confidenceScore"`
	ExternalSignals  JSONMap `gorm:"type:json" json:"externalSignals,omitempty"`
	Current          bool    `gorm:"not null;default:true;index" json:"current"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName names the table for this model.
func (ProcessedContent) TableName() string {
	return "processed_contents"
}
