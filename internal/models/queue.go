package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Queue struct {
	ID         string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	Title      string    `gorm:"not null" json:"title" bson:"title"`
	BusinessID string    `gorm:"type:varchar(64);index;not null" json:"business_id" bson:"business_id"` // Владелец очереди
	CreatedAt  time.Time `gorm:"not null" json:"created_at" bson:"created_at"`
}

// BeforeCreate assigns an id when the caller did not set one.
func (q *Queue) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}
