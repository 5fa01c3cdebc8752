package models

import "time"

// Experience is one work-experience entry on a profile. EndDate nil means
// the position is current.
type Experience struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ProfileID uint       `gorm:"index;not null"`
	Company   string     `gorm:"size:100;not null"`
	Role      string     `gorm:"size:100;not null"`
	StartDate time.Time  `gorm:"not null"`
	EndDate   *time.Time
}
