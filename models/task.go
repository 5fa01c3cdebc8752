package models

import "time"

// Task is a single to-do item owned by a user. CreatedAt is set once on
// insert; CompletedAt stays nil until the task is marked complete.
type Task struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UserID         uint       `gorm:"index;not null"`
	Title          string     `gorm:"size:100;not null"`
	Description    string     `gorm:"type:text"`
	CompletedAt    *time.Time `gorm:"index"`
	Important      bool       `gorm:"default:false"`
	AttachmentPath string     `gorm:"size:512"` // relative path under the upload base
}
