package models

import "time"

// Course is a completed training entry on a profile.
type Course struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProfileID   uint   `gorm:"index;not null"`
	Name        string `gorm:"size:100;not null"`
	Institution string `gorm:"size:100;not null"`
	Hours       int    `gorm:"not null"`
}
