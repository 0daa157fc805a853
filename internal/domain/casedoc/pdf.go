package casedoc

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/mdt/mdt/internal/domain/mdt"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 5.0
	cellPad    = 1.5
)

// PDF renders d as an A4 document. Long tables continue on new pages with
// the header row repeated.
func (r *Renderer) PDF(d *mdt.CaseDetail) ([]byte, error) {
	v := newView(d)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(r.margins.Left, r.margins.Top, r.margins.Right)
	pdf.SetAutoPageBreak(true, r.margins.Bottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	w := &pdfWriter{pdf: pdf, tr: tr, bottom: r.margins.Bottom}
	pdf.SetTitle(fmt.Sprintf("MDT Case #%d", v.CaseID), true)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("MDT Case #%d", v.CaseID)), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Patient: %s — HN %s", v.PatientName, v.HospitalNumber)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("DOB %s — Status [%s]", v.DOB, v.Status)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	w.section("Clinical History", v.ClinicalHistory)
	w.section("Provisional Diagnosis", v.ProvisionalDiagnosis)
	w.section("Discussion For", v.DiscussionFor)
	w.section("Scheduled", v.Scheduled)

	reportCols := []float64{0.2, 0.25, 0.55}
	reportHeader := []string{"Date", "Type", "Investigation Details"}
	for _, s := range []struct {
		title string
		rows  []reportRow
	}{{"Pathology Reports", v.Pathology}, {"Imaging Reports", v.Imaging}} {
		rows := make([][]string, 0, len(s.rows))
		for _, row := range s.rows {
			rows = append(rows, []string{row.Date, row.Type, row.Details})
		}
		w.heading(s.title)
		w.table(reportCols, reportHeader, rows)
	}

	treatments := make([][]string, 0, len(v.Treatments))
	for _, t := range v.Treatments {
		treatments = append(treatments, []string{t.Type, t.Key})
	}
	w.heading("Treatment History")
	w.table([]float64{0.3, 0.7}, []string{"Type", "Key Fields"}, treatments)

	w.section("Consensus & Follow-ups", v.Consensus)
	pdf.MultiCell(0, lineHeight, tr("Follow-ups: "+v.Followups), "", "L", false)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	bottom float64
}

func (w *pdfWriter) heading(title string) {
	w.pdf.Ln(3)
	w.pdf.SetFont(fontFamily, "B", 11)
	w.pdf.CellFormat(0, 7, w.tr(title), "", 1, "L", false, 0, "")
	w.pdf.SetFont(fontFamily, "", 10)
}

func (w *pdfWriter) section(title, body string) {
	w.heading(title)
	w.pdf.MultiCell(0, lineHeight, w.tr(body), "", "L", false)
}

// table draws a bordered table whose column widths are fractions of the
// printable width. Cells wrap and a row is as tall as its tallest cell. A
// row that does not fit moves to a new page; a row taller than a page is
// continued across pages. The header row is repeated on every new page.
func (w *pdfWriter) table(fractions []float64, header []string, rows [][]string) {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	widths := make([]float64, len(fractions))
	for i, f := range fractions {
		widths[i] = (pageW - left - right) * f
	}

	drawHeader := func() {
		w.pdf.SetFont(fontFamily, "B", 10)
		w.pdf.SetFillColor(238, 238, 238)
		lines := w.split(widths, header)
		w.row(widths, lines, 0, lineCount(lines), true)
		w.pdf.SetFont(fontFamily, "", 10)
	}
	newPage := func() {
		w.pdf.AddPage()
		drawHeader()
	}

	drawHeader()
	for _, cells := range rows {
		lines := w.split(widths, cells)
		total := lineCount(lines)
		moved := false
		for offset := 0; offset < total; {
			rest, room := total-offset, w.linesLeft()
			if rest > room && offset == 0 && !moved {
				newPage()
				moved = true
				continue
			}
			n := min(rest, max(room, 1))
			w.row(widths, lines, offset, n, false)
			offset += n
			if offset < total {
				newPage()
			}
		}
	}
}

func (w *pdfWriter) pageBottom() float64 {
	_, pageH := w.pdf.GetPageSize()
	return pageH - w.bottom
}

// linesLeft is the number of text lines a row can hold above the bottom
// margin.
func (w *pdfWriter) linesLeft() int {
	return int((w.pageBottom() - w.pdf.GetY() - 2*cellPad) / lineHeight)
}

// split wraps every cell to its column in the current font.
func (w *pdfWriter) split(widths []float64, cells []string) [][]string {
	out := make([][]string, len(cells))
	for i, cell := range cells {
		for _, line := range w.pdf.SplitLines([]byte(w.tr(cell)), widths[i]-2*cellPad) {
			out[i] = append(out[i], string(line))
		}
	}
	return out
}

func lineCount(lines [][]string) int {
	n := 1
	for _, cell := range lines {
		n = max(n, len(cell))
	}
	return n
}

// row draws n lines of every cell starting at line offset.
func (w *pdfWriter) row(widths []float64, lines [][]string, offset, n int, fill bool) {
	h := float64(n)*lineHeight + 2*cellPad
	x, y := w.pdf.GetXY()
	style := "D"
	if fill {
		style = "FD"
	}

	// table has already checked the chunk fits.
	w.pdf.SetAutoPageBreak(false, w.bottom)
	for i, cell := range lines {
		w.pdf.Rect(x, y, widths[i], h, style)
		for k := 0; k < n && offset+k < len(cell); k++ {
			w.pdf.SetXY(x+cellPad, y+cellPad+float64(k)*lineHeight)
			w.pdf.CellFormat(widths[i]-2*cellPad, lineHeight, cell[offset+k], "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	w.pdf.SetAutoPageBreak(true, w.bottom)

	left, _, _, _ := w.pdf.GetMargins()
	w.pdf.SetXY(left, y+h)
}
