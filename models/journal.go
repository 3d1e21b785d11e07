package models

import "time"

// SyncRecord remembers which Asana task a pull request maps to, so later
// runs can skip the search index's consistency window.
type SyncRecord struct {
	ID        string `gorm:"primaryKey"`
	PRURL     string `gorm:"column:pr_url;index"`
	TaskGID   string
	Outcome   string // "created" or "updated"
	CreatedAt time.Time
	UpdatedAt time.Time
}
