// Package cvpdf renders a stored profile as a paginated PDF ("hoja de
// vida"). The layout is a single column driven by a bottom-origin y cursor,
// the same scheme the page coordinates of the document use.
package cvpdf

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskflow/models"
)

// Layout constants in points on a Letter page (612x792).
const (
	pageHeight   = 792.0
	leftMargin   = 72.0
	indent       = 90.0
	topY         = 750.0 // cursor start, measured from the page bottom
	bottomY      = 100.0 // new page once the cursor drops below this
	linePitch    = 20.0
	sectionPitch = 30.0
	subPitch     = 15.0
)

const docTitle = "TaskFlow - Hoja de Vida"

// placeholder stands in for missing contact fields so an incomplete profile
// still renders instead of failing the download.
const placeholder = "-"

type writer struct {
	doc *gofpdf.Fpdf
	y   float64
}

func newWriter() *writer {
	doc := gofpdf.New("P", "pt", "Letter", "")
	doc.AddPage()
	return &writer{doc: doc, y: topY}
}

// text emits s at x on the current line, then moves the cursor down by pitch.
func (w *writer) text(x float64, s string, pitch float64) {
	w.doc.Text(x, pageHeight-w.y, s)
	w.y -= pitch
}

func (w *writer) rule() {
	w.doc.Line(leftMargin, pageHeight-w.y, 612-leftMargin, pageHeight-w.y)
	w.y -= subPitch
}

// breakPage starts a new page when the cursor has dropped below the bottom
// margin. Called once per experience row only, matching the document's
// original layout behavior.
func (w *writer) breakPage() {
	if w.y < bottomY {
		w.doc.AddPage()
		w.y = topY
	}
}

func (w *writer) setFont(style string, size float64) {
	w.doc.SetFont("Helvetica", style, size)
}

// Render produces the CV document for a user. profile may be nil (no profile
// row yet): the header then falls back to the account username and the
// contact block is omitted. Experiences and courses are emitted in the order
// given, which callers keep as insertion order.
func Render(profile *models.Profile, username string, experiences []models.Experience, courses []models.Course) ([]byte, error) {
	w := newWriter()

	w.setFont("B", 16)
	w.text(leftMargin, docTitle, sectionPitch)

	name := username
	if profile != nil && profile.FullName() != "" {
		name = profile.FullName()
	}
	w.setFont("B", 14)
	w.text(leftMargin, strings.ToUpper(name), linePitch)
	w.rule()

	if profile != nil {
		w.setFont("", 11)
		w.text(leftMargin, "Email: "+orPlaceholder(profile.Email), linePitch)
		w.text(leftMargin, "Phone: "+orPlaceholder(profile.Phone), linePitch)
		w.text(leftMargin, "Address: "+orPlaceholder(profile.HomeAddress), linePitch)
		w.y -= subPitch
	}

	w.setFont("B", 13)
	w.text(leftMargin, "Experiencia Laboral", sectionPitch)
	w.setFont("", 11)
	for _, e := range experiences {
		w.breakPage()
		w.text(leftMargin, e.Role+" at "+e.Company, linePitch)
		w.text(indent, dateRange(e.StartDate, e.EndDate), subPitch)
	}

	w.y -= subPitch
	w.setFont("B", 13)
	w.text(leftMargin, "Cursos", sectionPitch)
	w.setFont("", 11)
	for _, c := range courses {
		w.text(leftMargin, courseLine(c), linePitch)
	}

	var buf bytes.Buffer
	if err := w.doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func dateRange(start time.Time, end *time.Time) string {
	const layout = "Jan 2006"
	if end == nil {
		return start.Format(layout) + " - Present"
	}
	return start.Format(layout) + " - " + end.Format(layout)
}

func courseLine(c models.Course) string {
	return c.Name + " (" + c.Institution + ") - " + strconv.Itoa(c.Hours) + "h"
}
