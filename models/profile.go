package models

import "time"

// Profile holds a user's CV data (one-to-one with User). Child collections
// cascade-delete with the profile. NationalID is nullable so lazily created
// empty profiles can coexist under the unique index; a set value is unique
// across all profiles.
type Profile struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint       `gorm:"uniqueIndex;not null"` // one-to-one relation
	PhotoPath   string     `gorm:"size:512"`
	FirstName   string     `gorm:"size:60"`
	LastName    string     `gorm:"size:60"`
	NationalID  *string    `gorm:"size:10;uniqueIndex"`
	Nationality string     `gorm:"size:20"`
	BirthDate   *time.Time
	HomeAddress string     `gorm:"size:100"`
	Summary     string     `gorm:"size:500"`
	Phone       string     `gorm:"size:64"`
	Email       string     `gorm:"size:255"`

	Experiences      []Experience      `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Courses          []Course          `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	WorkProducts     []WorkProduct     `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AcademicProducts []AcademicProduct `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	References       []Reference       `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// FullName joins first and last name, tolerating either side being empty.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
