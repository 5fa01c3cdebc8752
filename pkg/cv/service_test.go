package cv

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"taskflow/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cv.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	entities := []interface{}{
		&models.Profile{},
		&models.Experience{},
		&models.Course{},
		&models.WorkProduct{},
		&models.AcademicProduct{},
		&models.Reference{},
	}
	for _, e := range entities {
		if err := db.AutoMigrate(e); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return db
}

func validSubmission() *Submission {
	return &Submission{
		Profile: MainFields{
			FirstName:   "Ana",
			LastName:    "Lopez",
			NationalID:  "0102030405",
			Nationality: "ecuatoriana",
			HomeAddress: "Av. Principal 123",
			Summary:     "Systems engineer with five years of experience.",
		},
		Experience: []ExperienceRow{
			{Company: "Acme", Role: "Developer", StartDate: "2019-01-15", EndDate: "2021-06-30"},
			{Company: "Globex", Role: "Senior Developer", StartDate: "2021-07-01"},
		},
		Courses: []CourseRow{
			{Name: "Go Fundamentals", Institution: "EPN", Hours: 40},
		},
		WorkProducts: []ProductRow{
			{Name: "Billing system", Description: "Internal invoicing platform"},
		},
		AcademicProducts: []ProductRow{
			{Name: "Thesis", Description: "Graph algorithms"},
		},
		References: []ReferenceRow{
			{Name: "Carlos Perez", Phone: "0999999999"},
		},
	}
}

func TestLoadGetOrCreate(t *testing.T) {
	db := testDB(t)
	p1, created, err := Load(db, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !created {
		t.Fatalf("expected profile to be created on first load")
	}
	p2, created, err := Load(db, 7)
	if err != nil {
		t.Fatalf("load again: %v", err)
	}
	if created {
		t.Fatalf("expected existing profile on second load")
	}
	if p1.ID != p2.ID {
		t.Fatalf("got two different profiles: %d vs %d", p1.ID, p2.ID)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	db := testDB(t)
	s := &Submission{}
	errs := Validate(db, 1, s)
	for _, field := range []string{
		"profile.first_name", "profile.last_name", "profile.national_id",
		"profile.nationality", "profile.home_address", "profile.summary",
	} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got none (errs=%v)", field, errs)
		}
	}
}

func TestValidateGroupRules(t *testing.T) {
	db := testDB(t)
	s := validSubmission()
	s.Experience = append(s.Experience, ExperienceRow{
		Company: "Initech", Role: "QA", StartDate: "2022-05-01", EndDate: "2021-01-01",
	})
	s.Courses = append(s.Courses, CourseRow{Name: "Excel", Institution: "SECAP", Hours: 0})
	errs := Validate(db, 1, s)
	if _, ok := errs["experience[2].end_date"]; !ok {
		t.Errorf("expected end-before-start error, got %v", errs)
	}
	if _, ok := errs["courses[1].hours"]; !ok {
		t.Errorf("expected hours error, got %v", errs)
	}
}

func TestValidateSkipsDeletedRows(t *testing.T) {
	db := testDB(t)
	s := validSubmission()
	id := uint(99)
	s.Courses = append(s.Courses, CourseRow{RowMeta: RowMeta{ID: &id, Delete: true}})
	if errs := Validate(db, 1, s); !errs.OK() {
		t.Fatalf("rows flagged for deletion must not be field-validated: %v", errs)
	}
}

func TestDeleteFlaggedUnsavedRowsAreNoOps(t *testing.T) {
	db := testDB(t)
	if err := Commit(db, 1, validSubmission()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before, err := Prefill(db, 1)
	if err != nil {
		t.Fatalf("prefill: %v", err)
	}

	// A row with the delete flag but no id was never saved: it must not be
	// field-validated, inserted, or parsed. The empty experience dates in
	// particular must not abort the commit.
	s, err := Prefill(db, 1)
	if err != nil {
		t.Fatalf("prefill edit: %v", err)
	}
	s.Experience = append(s.Experience, ExperienceRow{RowMeta: RowMeta{Delete: true}})
	s.Courses = append(s.Courses, CourseRow{RowMeta: RowMeta{Delete: true}})
	s.WorkProducts = append(s.WorkProducts, ProductRow{RowMeta: RowMeta{Delete: true}})
	s.References = append(s.References, ReferenceRow{RowMeta: RowMeta{Delete: true}})
	if errs := Validate(db, 1, s); !errs.OK() {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if err := Commit(db, 1, s); err != nil {
		t.Fatalf("commit: %v", err)
	}

	after, err := Prefill(db, 1)
	if err != nil {
		t.Fatalf("prefill after commit: %v", err)
	}
	if len(after.Experience) != len(before.Experience) ||
		len(after.Courses) != len(before.Courses) ||
		len(after.WorkProducts) != len(before.WorkProducts) ||
		len(after.References) != len(before.References) {
		t.Fatalf("delete-flagged unsaved rows changed stored data: before %d/%d/%d/%d after %d/%d/%d/%d",
			len(before.Experience), len(before.Courses), len(before.WorkProducts), len(before.References),
			len(after.Experience), len(after.Courses), len(after.WorkProducts), len(after.References))
	}
}

func TestNormalizeDropsBlankRows(t *testing.T) {
	s := validSubmission()
	s.Experience = append(s.Experience, ExperienceRow{})
	s.Courses = append(s.Courses, CourseRow{})
	s.References = append(s.References, ReferenceRow{})
	// delete-flagged rows without an id count as blank too
	s.Experience = append(s.Experience, ExperienceRow{RowMeta: RowMeta{Delete: true}, Company: "Ghost"})
	s.Courses = append(s.Courses, CourseRow{RowMeta: RowMeta{Delete: true}})
	s.Normalize()
	if len(s.Experience) != 2 || len(s.Courses) != 1 || len(s.References) != 1 {
		t.Fatalf("blank trailing rows should be dropped: %d/%d/%d",
			len(s.Experience), len(s.Courses), len(s.References))
	}
}

func TestValidateCountsRunesNotBytes(t *testing.T) {
	db := testDB(t)
	s := validSubmission()
	s.Profile.FirstName = strings.Repeat("á", 60) // 60 chars, 120 bytes
	if errs := Validate(db, 1, s); !errs.OK() {
		t.Fatalf("60 accented characters must fit a 60-char field: %v", errs)
	}
	s.Profile.FirstName = strings.Repeat("á", 61)
	if _, ok := Validate(db, 1, s)["profile.first_name"]; !ok {
		t.Fatalf("61 characters must exceed a 60-char field")
	}
}

func TestEmptyProfilesCoexistUnderUniqueNationalID(t *testing.T) {
	db := testDB(t)
	for _, userID := range []uint{1, 2, 3} {
		if _, created, err := Load(db, userID); err != nil || !created {
			t.Fatalf("lazy profile for user %d: created=%v err=%v", userID, created, err)
		}
	}
}

func TestCommitRoundTrip(t *testing.T) {
	db := testDB(t)
	s := validSubmission()
	if errs := Validate(db, 1, s); !errs.OK() {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if err := Commit(db, 1, s); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := Prefill(db, 1)
	if err != nil {
		t.Fatalf("prefill: %v", err)
	}
	if got.Profile.FirstName != "Ana" || got.Profile.NationalID != "0102030405" {
		t.Fatalf("main fields not persisted: %+v", got.Profile)
	}
	if len(got.Experience) != 2 || len(got.Courses) != 1 ||
		len(got.WorkProducts) != 1 || len(got.AcademicProducts) != 1 || len(got.References) != 1 {
		t.Fatalf("unexpected group sizes after commit: %+v", got)
	}
	for i, r := range got.Experience {
		if r.ID == nil {
			t.Fatalf("experience[%d] missing id after prefill", i)
		}
	}
	if got.Experience[1].EndDate != "" {
		t.Fatalf("open-ended experience should have empty end date, got %q", got.Experience[1].EndDate)
	}

	// Second pass: update one row, delete one, insert one.
	edit := got
	edit.Experience[0].Role = "Lead Developer"
	edit.Experience[1].Delete = true
	edit.Experience = append(edit.Experience, ExperienceRow{
		Company: "Umbrella", Role: "Architect", StartDate: "2023-01-01",
	})
	if errs := Validate(db, 1, edit); !errs.OK() {
		t.Fatalf("edit validation: %v", errs)
	}
	if err := Commit(db, 1, edit); err != nil {
		t.Fatalf("edit commit: %v", err)
	}
	got2, err := Prefill(db, 1)
	if err != nil {
		t.Fatalf("prefill after edit: %v", err)
	}
	if len(got2.Experience) != 2 {
		t.Fatalf("expected 2 experiences after delete+insert, got %d", len(got2.Experience))
	}
	if got2.Experience[0].Role != "Lead Developer" {
		t.Fatalf("update not applied: %+v", got2.Experience[0])
	}
	if got2.Experience[1].Company != "Umbrella" {
		t.Fatalf("insert not applied: %+v", got2.Experience[1])
	}
}

func TestCommitRejectsForeignNationalID(t *testing.T) {
	db := testDB(t)
	if err := Commit(db, 1, validSubmission()); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	s2 := validSubmission() // same national id, different user
	s2.Profile.FirstName = "Maria"
	errs := Validate(db, 2, s2)
	if _, ok := errs["profile.national_id"]; !ok {
		t.Fatalf("validate should flag the duplicate national id, got %v", errs)
	}

	err := Commit(db, 2, s2)
	if err == nil {
		t.Fatalf("commit should reject the duplicate national id")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	// Nothing may have been written for user 2 beyond the empty profile.
	p, created, err := Load(db, 2)
	if err != nil || created {
		t.Fatalf("load after rejected commit: created=%v err=%v", created, err)
	}
	if p.FirstName != "" || p.NationalID != nil {
		t.Fatalf("rejected commit must not write main fields: %+v", p)
	}
	var n int64
	db.Model(&models.Experience{}).Where("profile_id = ?", p.ID).Count(&n)
	if n != 0 {
		t.Fatalf("rejected commit must not write child rows, found %d", n)
	}
}

func TestCommitRollsBackOnForeignChildRow(t *testing.T) {
	db := testDB(t)
	if err := Commit(db, 1, validSubmission()); err != nil {
		t.Fatalf("seed user 1: %v", err)
	}
	owned, err := Prefill(db, 1)
	if err != nil {
		t.Fatalf("prefill: %v", err)
	}

	// User 2 submits a row claiming user 1's experience id: the update must
	// fail and roll back the already-written main fields.
	s2 := validSubmission()
	s2.Profile.NationalID = "1112223334"
	s2.Profile.FirstName = "Maria"
	s2.Experience = []ExperienceRow{{
		RowMeta:   RowMeta{ID: owned.Experience[0].ID},
		Company:   "Hijack",
		Role:      "Intruder",
		StartDate: "2020-01-01",
	}}
	if err := Commit(db, 2, s2); err == nil {
		t.Fatalf("commit with a foreign child id should fail")
	}
	p, _, err := Load(db, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.FirstName == "Maria" {
		t.Fatalf("main profile write should have been rolled back")
	}
}
