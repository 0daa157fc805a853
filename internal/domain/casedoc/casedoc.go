// Package casedoc renders a case detail as a printable HTML or PDF
// document. All free text is escaped for the target format at render time.
package casedoc

import (
	"bytes"
	"encoding/json"

	"github.com/mdt/mdt/internal/domain/mdt"
)

const (
	dash   = "-"
	noDate = "—"
)

// Margins are PDF page margins in millimetres.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins is 15mm on every side.
var DefaultMargins = Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}

// Renderer implements mdt.DocumentRenderer.
type Renderer struct {
	margins  Margins
	compress bool
}

func NewRenderer(m Margins) *Renderer {
	return &Renderer{margins: m, compress: true}
}

var _ mdt.DocumentRenderer = (*Renderer)(nil)

// view is the layout-ready form of a case detail shared by both formats.
type view struct {
	CaseID               int64
	PatientName          string
	HospitalNumber       string
	DOB                  string
	Status               string
	ClinicalHistory      string
	ProvisionalDiagnosis string
	DiscussionFor        string
	Scheduled            string
	Pathology            []reportRow
	Imaging              []reportRow
	Treatments           []treatmentRow
	Consensus            string
	Followups            string
}

type reportRow struct {
	Date, Type, Details string
}

type treatmentRow struct {
	Type, Key string
}

func orDash(s string) string {
	if s == "" {
		return dash
	}
	return s
}

func newView(d *mdt.CaseDetail) view {
	c := d.Case
	v := view{
		CaseID:               c.ID,
		PatientName:          d.Patient.Name,
		HospitalNumber:       d.Patient.HospitalNumber,
		DOB:                  d.Patient.DOB(),
		Status:               string(c.Status),
		ClinicalHistory:      orDash(c.ClinicalHistory),
		ProvisionalDiagnosis: orDash(c.ProvisionalDiagnosis),
		DiscussionFor:        orDash(c.DiscussionFor),
		Pathology:            reportRows(d.Pathology),
		Imaging:              reportRows(d.Imaging),
		Consensus:            dash,
		Followups:            "[]",
	}

	date := c.ScheduledDateString()
	if date == "" {
		date = noDate
	}
	v.Scheduled = orDash(c.ScheduledReason) + " (" + date + ")"

	for _, t := range d.Treatments {
		row := treatmentRow{Type: dash, Key: dash}
		if t.Detail != nil {
			row = treatmentRow{Type: string(t.Detail.Type()), Key: orDash(t.Detail.KeyField())}
		}
		v.Treatments = append(v.Treatments, row)
	}

	if d.Consensus != nil {
		v.Consensus = orDash(d.Consensus.Text)
		if len(d.Consensus.Followups) > 0 {
			v.Followups = jsonList(d.Consensus.Followups)
		}
	}
	return v
}

func reportRows(rs []*mdt.Report) []reportRow {
	rows := make([]reportRow, 0, len(rs))
	for _, r := range rs {
		details := ""
		if r.InvestigationDetails != nil {
			details = *r.InvestigationDetails
		}
		rows = append(rows, reportRow{Date: r.Date(), Type: orDash(r.ReportType), Details: orDash(details)})
	}
	return rows
}

// jsonList writes items as a compact JSON array without HTML escaping; each
// renderer escapes for its own format.
func jsonList(items []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "[]"
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}
