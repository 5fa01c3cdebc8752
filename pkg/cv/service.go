// Package cv implements the profile aggregation service: one edit-profile
// submission is bound, validated as a whole and committed in a single
// transaction, or rejected without writing anything.
package cv

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"taskflow/models"
)

// DateLayout is the wire format for all submission dates.
const DateLayout = "2006-01-02"

// Load fetches the profile for userID, creating an empty one on first
// access. The bool reports whether a new row was created.
func Load(db *gorm.DB, userID uint) (*models.Profile, bool, error) {
	var p models.Profile
	err := db.Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	p = models.Profile{UserID: userID}
	if err := db.Create(&p).Error; err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// Prefill builds a submission from the stored profile and its child rows so
// a GET can show the current state for editing.
func Prefill(db *gorm.DB, userID uint) (*Submission, error) {
	p, _, err := Load(db, userID)
	if err != nil {
		return nil, err
	}
	s := &Submission{
		Profile: MainFields{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Nationality: p.Nationality,
			HomeAddress: p.HomeAddress,
			Summary:     p.Summary,
			Phone:       p.Phone,
			Email:       p.Email,
		},
	}
	if p.NationalID != nil {
		s.Profile.NationalID = *p.NationalID
	}
	if p.BirthDate != nil {
		s.Profile.BirthDate = p.BirthDate.Format(DateLayout)
	}

	var exps []models.Experience
	if err := db.Where("profile_id = ?", p.ID).Order("id asc").Find(&exps).Error; err != nil {
		return nil, err
	}
	for _, e := range exps {
		id := e.ID
		row := ExperienceRow{
			RowMeta:   RowMeta{ID: &id},
			Company:   e.Company,
			Role:      e.Role,
			StartDate: e.StartDate.Format(DateLayout),
		}
		if e.EndDate != nil {
			row.EndDate = e.EndDate.Format(DateLayout)
		}
		s.Experience = append(s.Experience, row)
	}

	var courses []models.Course
	if err := db.Where("profile_id = ?", p.ID).Order("id asc").Find(&courses).Error; err != nil {
		return nil, err
	}
	for _, c := range courses {
		id := c.ID
		s.Courses = append(s.Courses, CourseRow{
			RowMeta:     RowMeta{ID: &id},
			Name:        c.Name,
			Institution: c.Institution,
			Hours:       c.Hours,
		})
	}

	var wps []models.WorkProduct
	if err := db.Where("profile_id = ?", p.ID).Order("id asc").Find(&wps).Error; err != nil {
		return nil, err
	}
	for _, w := range wps {
		id := w.ID
		s.WorkProducts = append(s.WorkProducts, ProductRow{
			RowMeta:     RowMeta{ID: &id},
			Name:        w.Name,
			Description: w.Description,
		})
	}

	var aps []models.AcademicProduct
	if err := db.Where("profile_id = ?", p.ID).Order("id asc").Find(&aps).Error; err != nil {
		return nil, err
	}
	for _, a := range aps {
		id := a.ID
		s.AcademicProducts = append(s.AcademicProducts, ProductRow{
			RowMeta:     RowMeta{ID: &id},
			Name:        a.Name,
			Description: a.Description,
		})
	}

	var refs []models.Reference
	if err := db.Where("profile_id = ?", p.ID).Order("id asc").Find(&refs).Error; err != nil {
		return nil, err
	}
	for _, r := range refs {
		id := r.ID
		s.References = append(s.References, ReferenceRow{
			RowMeta: RowMeta{ID: &id},
			Name:    r.Name,
			Phone:   r.Phone,
		})
	}

	return s, nil
}

// Validate checks the main fields and every child group independently and
// returns the combined field errors. An empty result means the submission
// may be committed. Rows flagged for deletion are not field-validated.
func Validate(db *gorm.DB, userID uint, s *Submission) FieldErrors {
	errs := FieldErrors{}
	m := s.Profile

	requireLen(errs, "profile.first_name", m.FirstName, 60)
	requireLen(errs, "profile.last_name", m.LastName, 60)
	requireLen(errs, "profile.national_id", m.NationalID, 10)
	requireLen(errs, "profile.nationality", m.Nationality, 20)
	requireLen(errs, "profile.home_address", m.HomeAddress, 100)
	requireLen(errs, "profile.summary", m.Summary, 500)
	if m.BirthDate != "" {
		if _, err := time.Parse(DateLayout, m.BirthDate); err != nil {
			errs.Add("profile.birth_date", "invalid date, expected "+DateLayout)
		}
	}
	if m.NationalID != "" {
		var n int64
		db.Model(&models.Profile{}).
			Where("national_id = ? AND user_id <> ?", m.NationalID, userID).
			Count(&n)
		if n > 0 {
			errs.Add("profile.national_id", "already registered to another profile")
		}
	}

	for i, r := range s.Experience {
		if r.Delete {
			continue
		}
		requireLen(errs, field("experience", i, "company"), r.Company, 100)
		requireLen(errs, field("experience", i, "role"), r.Role, 100)
		start, err := time.Parse(DateLayout, r.StartDate)
		if r.StartDate == "" {
			errs.Add(field("experience", i, "start_date"), "this field is required")
		} else if err != nil {
			errs.Add(field("experience", i, "start_date"), "invalid date, expected "+DateLayout)
		}
		if r.EndDate != "" {
			end, err := time.Parse(DateLayout, r.EndDate)
			if err != nil {
				errs.Add(field("experience", i, "end_date"), "invalid date, expected "+DateLayout)
			} else if r.StartDate != "" && end.Before(start) {
				errs.Add(field("experience", i, "end_date"), "must not be before start date")
			}
		}
	}

	for i, r := range s.Courses {
		if r.Delete {
			continue
		}
		requireLen(errs, field("courses", i, "name"), r.Name, 100)
		requireLen(errs, field("courses", i, "institution"), r.Institution, 100)
		if r.Hours <= 0 {
			errs.Add(field("courses", i, "hours"), "must be a positive number of hours")
		}
	}

	validateProducts(errs, "work_products", s.WorkProducts)
	validateProducts(errs, "academic_products", s.AcademicProducts)

	for i, r := range s.References {
		if r.Delete {
			continue
		}
		requireLen(errs, field("references", i, "name"), r.Name, 100)
		if utf8.RuneCountInString(r.Phone) > 15 {
			errs.Add(field("references", i, "phone"), "too long (max 15)")
		}
	}

	return errs
}

func validateProducts(errs FieldErrors, group string, rows []ProductRow) {
	for i, r := range rows {
		if r.Delete {
			continue
		}
		requireLen(errs, field(group, i, "name"), r.Name, 100)
		if utf8.RuneCountInString(r.Description) > 200 {
			errs.Add(field(group, i, "description"), "too long (max 200)")
		}
	}
}

func requireLen(errs FieldErrors, name, val string, max int) {
	if val == "" {
		errs.Add(name, "this field is required")
		return
	}
	// limits are in characters, not bytes; accented names must not burn
	// two units per letter
	if utf8.RuneCountInString(val) > max {
		errs.Add(name, fmt.Sprintf("too long (max %d)", max))
	}
}

func field(group string, i int, name string) string {
	return fmt.Sprintf("%s[%d].%s", group, i, name)
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "already exists")
}

// Commit persists a validated submission in one transaction: main profile
// first, then each child group in fixed order. Any failure rolls the whole
// submission back. The national-id check is repeated inside the transaction;
// a conflict surfaces as *ValidationError.
func Commit(db *gorm.DB, userID uint, s *Submission) error {
	return db.Transaction(func(tx *gorm.DB) error {
		p, _, err := Load(tx, userID)
		if err != nil {
			return err
		}

		if s.Profile.NationalID != "" {
			var n int64
			if err := tx.Model(&models.Profile{}).
				Where("national_id = ? AND user_id <> ?", s.Profile.NationalID, userID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return &ValidationError{Fields: FieldErrors{
					"profile.national_id": "already registered to another profile",
				}}
			}
		}

		p.FirstName = s.Profile.FirstName
		p.LastName = s.Profile.LastName
		p.NationalID = nil
		if s.Profile.NationalID != "" {
			nid := s.Profile.NationalID
			p.NationalID = &nid
		}
		p.Nationality = s.Profile.Nationality
		p.HomeAddress = s.Profile.HomeAddress
		p.Summary = s.Profile.Summary
		p.Phone = s.Profile.Phone
		p.Email = s.Profile.Email
		p.BirthDate = nil
		if s.Profile.BirthDate != "" {
			bd, err := time.Parse(DateLayout, s.Profile.BirthDate)
			if err != nil {
				return err
			}
			p.BirthDate = &bd
		}
		if err := tx.Save(p).Error; err != nil {
			// a concurrent edit may win the national-id unique index race
			// between the count above and this write
			if isUniqueViolation(err) {
				return &ValidationError{Fields: FieldErrors{
					"profile.national_id": "already registered to another profile",
				}}
			}
			return err
		}

		if err := applyExperience(tx, p.ID, s.Experience); err != nil {
			return err
		}
		if err := applyCourses(tx, p.ID, s.Courses); err != nil {
			return err
		}
		if err := applyWorkProducts(tx, p.ID, s.WorkProducts); err != nil {
			return err
		}
		if err := applyAcademicProducts(tx, p.ID, s.AcademicProducts); err != nil {
			return err
		}
		return applyReferences(tx, p.ID, s.References)
	})
}

func applyExperience(tx *gorm.DB, profileID uint, rows []ExperienceRow) error {
	for _, r := range rows {
		if r.Delete {
			if r.ID == nil { // deleting an unsaved row is a no-op
				continue
			}
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).
				Delete(&models.Experience{}).Error; err != nil {
				return err
			}
			continue
		}
		start, err := time.Parse(DateLayout, r.StartDate)
		if err != nil {
			return err
		}
		var end *time.Time
		if r.EndDate != "" {
			e, err := time.Parse(DateLayout, r.EndDate)
			if err != nil {
				return err
			}
			end = &e
		}
		if r.ID != nil {
			var exp models.Experience
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).First(&exp).Error; err != nil {
				return err
			}
			exp.Company = r.Company
			exp.Role = r.Role
			exp.StartDate = start
			exp.EndDate = end
			if err := tx.Save(&exp).Error; err != nil {
				return err
			}
			continue
		}
		exp := models.Experience{ProfileID: profileID, Company: r.Company, Role: r.Role, StartDate: start, EndDate: end}
		if err := tx.Create(&exp).Error; err != nil {
			return err
		}
	}
	return nil
}

func applyCourses(tx *gorm.DB, profileID uint, rows []CourseRow) error {
	for _, r := range rows {
		if r.Delete {
			if r.ID == nil {
				continue
			}
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).
				Delete(&models.Course{}).Error; err != nil {
				return err
			}
			continue
		}
		if r.ID != nil {
			var c models.Course
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).First(&c).Error; err != nil {
				return err
			}
			c.Name = r.Name
			c.Institution = r.Institution
			c.Hours = r.Hours
			if err := tx.Save(&c).Error; err != nil {
				return err
			}
			continue
		}
		c := models.Course{ProfileID: profileID, Name: r.Name, Institution: r.Institution, Hours: r.Hours}
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
	}
	return nil
}

func applyWorkProducts(tx *gorm.DB, profileID uint, rows []ProductRow) error {
	for _, r := range rows {
		if r.Delete {
			if r.ID == nil {
				continue
			}
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).
				Delete(&models.WorkProduct{}).Error; err != nil {
				return err
			}
			continue
		}
		if r.ID != nil {
			var wp models.WorkProduct
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).First(&wp).Error; err != nil {
				return err
			}
			wp.Name = r.Name
			wp.Description = r.Description
			if err := tx.Save(&wp).Error; err != nil {
				return err
			}
			continue
		}
		wp := models.WorkProduct{ProfileID: profileID, Name: r.Name, Description: r.Description}
		if err := tx.Create(&wp).Error; err != nil {
			return err
		}
	}
	return nil
}

func applyAcademicProducts(tx *gorm.DB, profileID uint, rows []ProductRow) error {
	for _, r := range rows {
		if r.Delete {
			if r.ID == nil {
				continue
			}
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).
				Delete(&models.AcademicProduct{}).Error; err != nil {
				return err
			}
			continue
		}
		if r.ID != nil {
			var ap models.AcademicProduct
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).First(&ap).Error; err != nil {
				return err
			}
			ap.Name = r.Name
			ap.Description = r.Description
			if err := tx.Save(&ap).Error; err != nil {
				return err
			}
			continue
		}
		ap := models.AcademicProduct{ProfileID: profileID, Name: r.Name, Description: r.Description}
		if err := tx.Create(&ap).Error; err != nil {
			return err
		}
	}
	return nil
}

func applyReferences(tx *gorm.DB, profileID uint, rows []ReferenceRow) error {
	for _, r := range rows {
		if r.Delete {
			if r.ID == nil {
				continue
			}
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).
				Delete(&models.Reference{}).Error; err != nil {
				return err
			}
			continue
		}
		if r.ID != nil {
			var ref models.Reference
			if err := tx.Where("id = ? AND profile_id = ?", *r.ID, profileID).First(&ref).Error; err != nil {
				return err
			}
			ref.Name = r.Name
			ref.Phone = r.Phone
			if err := tx.Save(&ref).Error; err != nil {
				return err
			}
			continue
		}
		ref := models.Reference{ProfileID: profileID, Name: r.Name, Phone: r.Phone}
		if err := tx.Create(&ref).Error; err != nil {
			return err
		}
	}
	return nil
}
