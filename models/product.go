package models

import "time"

// WorkProduct is a deliverable produced in a professional context.
type WorkProduct struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProfileID   uint   `gorm:"index;not null"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:200"`
}

// AcademicProduct is a publication or resource produced in an academic context.
type AcademicProduct struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProfileID   uint   `gorm:"index;not null"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:200"`
}
