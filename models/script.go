package models

import (
	"time"
)

// ScriptRecord archives a successfully generated script.
type ScriptRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JobID       string    `gorm:"size:64;uniqueIndex" json:"job_id"`
	ProfileName string    `gorm:"size:255;index" json:"profile_name"`
	Topic       string    `gorm:"size:512" json:"topic"`
	Script      string    `gorm:"type:text" json:"script"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ScriptRecord) TableName() string {
	return "scripts"
}
