package cvpdf

import (
	"bytes"
	"testing"
	"time"

	"taskflow/models"
)

// pageCount counts page objects in the serialized document. Page
// dictionaries are written uncompressed, so the marker is reliable.
func pageCount(b []byte) int {
	return bytes.Count(b, []byte("/Type /Page")) - bytes.Count(b, []byte("/Type /Pages"))
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleProfile() *models.Profile {
	return &models.Profile{
		FirstName:   "Ana",
		LastName:    "Lopez",
		Email:       "ana@example.com",
		Phone:       "0999999999",
		HomeAddress: "Av. Principal 123",
	}
}

func experiences(n int) []models.Experience {
	out := make([]models.Experience, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Experience{
			Company:   "Acme",
			Role:      "Developer",
			StartDate: date("2019-01-15"),
		})
	}
	return out
}

func TestRenderProducesPDF(t *testing.T) {
	b, err := Render(sampleProfile(), "ana", experiences(2), []models.Course{
		{Name: "Go Fundamentals", Institution: "EPN", Hours: 40},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF (starts with %q)", b[:8])
	}
	if got := pageCount(b); got != 1 {
		t.Fatalf("expected 1 page for a short document, got %d", got)
	}
}

func TestRenderPaginatesLongExperienceList(t *testing.T) {
	// With the contact block present the experience section starts at
	// y=580 and each row consumes 35 points; the cursor crosses the bottom
	// margin before the list ends, forcing a second page.
	b, err := Render(sampleProfile(), "ana", experiences(20), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := pageCount(b); got != 2 {
		t.Fatalf("expected 2 pages for 20 experience rows, got %d", got)
	}
}

func TestRenderWithoutProfileFallsBackToUsername(t *testing.T) {
	b, err := Render(nil, "someuser", nil, nil)
	if err != nil {
		t.Fatalf("render without profile must not fail: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if got := pageCount(b); got != 1 {
		t.Fatalf("expected 1 page, got %d", got)
	}
}

func TestRenderEmptyNameUsesUsername(t *testing.T) {
	// A profile that exists but has no name yet still renders with the
	// account username as the header.
	p := &models.Profile{}
	if _, err := Render(p, "fallback", nil, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
}
