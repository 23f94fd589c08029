package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QueueEntry struct {
	ID       string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	QueueID  string    `gorm:"type:varchar(64);not null;index:idx_entries_queue_status,priority:1;uniqueIndex:idx_entries_waiting_user,priority:1,where:status = 'waiting'" json:"queue_id" bson:"queue_id"`
	UserID   string    `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_entries_waiting_user,priority:2,where:status = 'waiting'" json:"user_id" bson:"user_id"`
	Position int       `gorm:"not null" json:"position" bson:"position"` // Позиция на момент входа, дальше только уменьшается
	Status   Status    `gorm:"type:varchar(16);not null;index:idx_entries_queue_status,priority:2" json:"status" bson:"status"`
	JoinedAt time.Time `gorm:"not null;index" json:"joined_at" bson:"joined_at"`
}

// BeforeCreate assigns an id when the caller did not set one.
func (e *QueueEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Waiting reports whether the entry still holds a place in the line.
func (e *QueueEntry) Waiting() bool {
	return e.Status == StatusWaiting
}
