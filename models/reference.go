package models

import "time"

// Reference is a personal reference contact on a profile.
type Reference struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ProfileID uint   `gorm:"index;not null"`
	Name      string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:15"`
}
