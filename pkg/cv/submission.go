package cv

import "strings"

// Submission is one bound edit-profile payload: the main profile fields plus
// the repeated child groups. Each row may carry the id of an existing record
// and a delete flag; rows without an id are inserts. Dates travel as
// "2006-01-02" strings and are parsed during validation.
type Submission struct {
	Profile          MainFields      `json:"profile"`
	Experience       []ExperienceRow `json:"experience"`
	Courses          []CourseRow     `json:"courses"`
	WorkProducts     []ProductRow    `json:"work_products"`
	AcademicProducts []ProductRow    `json:"academic_products"`
	References       []ReferenceRow  `json:"references"`
}

// RowMeta is embedded in every child row to drive the update/insert/delete
// decision during commit.
type RowMeta struct {
	ID     *uint `json:"id,omitempty"`
	Delete bool  `json:"delete,omitempty"`
}

type MainFields struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	NationalID  string `json:"national_id"`
	Nationality string `json:"nationality"`
	BirthDate   string `json:"birth_date,omitempty"`
	HomeAddress string `json:"home_address"`
	Summary     string `json:"summary"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

type ExperienceRow struct {
	RowMeta
	Company   string `json:"company"`
	Role      string `json:"role"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

type CourseRow struct {
	RowMeta
	Name        string `json:"name"`
	Institution string `json:"institution"`
	Hours       int    `json:"hours"`
}

type ProductRow struct {
	RowMeta
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ReferenceRow struct {
	RowMeta
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// A row is discarded when it was never saved and is either fully blank or
// flagged for deletion: deleting something that has no id is a no-op.
func (r ExperienceRow) discard() bool {
	return r.ID == nil && (r.Delete || allEmpty(r.Company, r.Role, r.StartDate, r.EndDate))
}

func (r CourseRow) discard() bool {
	return r.ID == nil && (r.Delete || (r.Hours == 0 && allEmpty(r.Name, r.Institution)))
}

func (r ProductRow) discard() bool {
	return r.ID == nil && (r.Delete || allEmpty(r.Name, r.Description))
}

func (r ReferenceRow) discard() bool {
	return r.ID == nil && (r.Delete || allEmpty(r.Name, r.Phone))
}

func allEmpty(vals ...string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Normalize trims whitespace on the main fields and drops insert rows that
// are fully blank or delete-flagged, the equivalent of empty trailing form
// rows and of removing a row that was never saved.
func (s *Submission) Normalize() {
	s.Profile.FirstName = strings.TrimSpace(s.Profile.FirstName)
	s.Profile.LastName = strings.TrimSpace(s.Profile.LastName)
	s.Profile.NationalID = strings.TrimSpace(s.Profile.NationalID)
	s.Profile.Nationality = strings.TrimSpace(s.Profile.Nationality)
	s.Profile.BirthDate = strings.TrimSpace(s.Profile.BirthDate)
	s.Profile.HomeAddress = strings.TrimSpace(s.Profile.HomeAddress)
	s.Profile.Summary = strings.TrimSpace(s.Profile.Summary)

	s.Experience = keep(s.Experience, func(r ExperienceRow) bool { return !r.discard() })
	s.Courses = keep(s.Courses, func(r CourseRow) bool { return !r.discard() })
	s.WorkProducts = keep(s.WorkProducts, func(r ProductRow) bool { return !r.discard() })
	s.AcademicProducts = keep(s.AcademicProducts, func(r ProductRow) bool { return !r.discard() })
	s.References = keep(s.References, func(r ReferenceRow) bool { return !r.discard() })
}

func keep[T any](rows []T, pred func(T) bool) []T {
	out := rows[:0]
	for _, r := range rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
