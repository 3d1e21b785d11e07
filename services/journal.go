package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asana-pr-sync/models"
)

// Journal is an optional local record of which task belongs to which pull
// request. It is a fast path only; the backend stays the source of truth
// and journal writes never fail a run.
type Journal struct {
	db *gorm.DB
}

func OpenJournal(path string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.SyncRecord{}); err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Lookup(prURL string) (string, bool) {
	var record models.SyncRecord
	if err := j.db.Where("pr_url = ?", prURL).First(&record).Error; err != nil {
		return "", false
	}
	return record.TaskGID, true
}

func (j *Journal) Record(prURL, taskGID, outcome string) {
	now := time.Now()
	var record models.SyncRecord
	if err := j.db.Where("pr_url = ?", prURL).First(&record).Error; err != nil {
		record = models.SyncRecord{
			ID:        uuid.NewString(),
			PRURL:     prURL,
			TaskGID:   taskGID,
			Outcome:   outcome,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := j.db.Create(&record).Error; err != nil {
			log.Printf("journal write error: %v", err)
		}
		return
	}
	record.TaskGID = taskGID
	record.Outcome = outcome
	record.UpdatedAt = now
	if err := j.db.Save(&record).Error; err != nil {
		log.Printf("journal update error: %v", err)
	}
}
