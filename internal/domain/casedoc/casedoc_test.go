package casedoc

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mdt/mdt/internal/domain/mdt"
	"github.com/mdt/mdt/internal/domain/patient"
)

func sampleDetail() *mdt.CaseDetail {
	scheduled := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	details := "Adenocarcinoma, grade 2"
	return &mdt.CaseDetail{
		Case: &mdt.Case{
			ID:              12,
			ClinicalHistory: "Weight loss <3 months>",
			ScheduledReason: "Staging review",
			ScheduledDate:   &scheduled,
			Status:          mdt.StatusDone,
		},
		Patient: &patient.Patient{
			Name:           "Ravi & Sons",
			HospitalNumber: "HN-042",
			DateOfBirth:    time.Date(1970, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		Pathology: []*mdt.Report{
			{Kind: mdt.KindPathology, DateOfReport: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), ReportType: "Biopsy", InvestigationDetails: &details},
			{Kind: mdt.KindPathology, DateOfReport: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), ReportType: "FNAC"},
		},
		Treatments: []*mdt.Treatment{
			{Detail: mdt.Chemo{Protocol: "FOLFOX"}},
			{Detail: mdt.ChemoRadiotherapy{ChemoDrug: "Cisplatin"}},
		},
		Consensus: &mdt.Consensus{Text: "Proceed to surgery", Followups: []string{"CT in 3 months", "Review"}},
	}
}

func TestNewView(t *testing.T) {
	v := newView(sampleDetail())

	if v.Scheduled != "Staging review (2024-07-01)" {
		t.Errorf("unexpected scheduled line %q", v.Scheduled)
	}
	if v.ProvisionalDiagnosis != "-" || v.DiscussionFor != "-" {
		t.Errorf("expected dashes for empty sections, got %q / %q", v.ProvisionalDiagnosis, v.DiscussionFor)
	}
	if len(v.Pathology) != 2 || v.Pathology[1].Details != "-" {
		t.Errorf("unexpected pathology rows %v", v.Pathology)
	}
	if len(v.Imaging) != 0 {
		t.Errorf("expected no imaging rows, got %v", v.Imaging)
	}
	if v.Treatments[0].Key != "FOLFOX" || v.Treatments[1].Key != "-" {
		t.Errorf("unexpected treatment rows %v", v.Treatments)
	}
	if v.Followups != `["CT in 3 months","Review"]` {
		t.Errorf("unexpected followups %q", v.Followups)
	}
}

func TestNewView_Empty(t *testing.T) {
	d := sampleDetail()
	d.Case.ScheduledDate = nil
	d.Case.ScheduledReason = ""
	d.Consensus = nil

	v := newView(d)
	if v.Scheduled != "- (—)" {
		t.Errorf("unexpected scheduled line %q", v.Scheduled)
	}
	if v.Consensus != "-" || v.Followups != "[]" {
		t.Errorf("expected empty consensus, got %q / %q", v.Consensus, v.Followups)
	}
}

func TestHTML(t *testing.T) {
	out, err := NewRenderer(DefaultMargins).HTML(sampleDetail())
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"<h1>MDT Case #12</h1>",
		"Patient: Ravi &amp; Sons — HN HN-042",
		`DOB 1970-03-04 — Status <span class="badge">Done</span>`,
		"Weight loss &lt;3 months&gt;",
		"<tr><td>2024-06-01</td><td>Biopsy</td><td>Adenocarcinoma, grade 2</td></tr>",
		"<tr><td>2024-06-03</td><td>FNAC</td><td>-</td></tr>",
		"<tr><td>Chemo</td><td>FOLFOX</td></tr>",
		"<tr><td>Chemo-Radiotherapy</td><td>-</td></tr>",
		"Proceed to surgery",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(html, "<3 months>") {
		t.Error("free text must be escaped")
	}

	pathology := strings.Index(html, "Pathology Reports")
	imaging := strings.Index(html, "Imaging Reports")
	treatment := strings.Index(html, "Treatment History")
	consensus := strings.Index(html, "Consensus &amp; Follow-ups")
	if !(pathology > 0 && pathology < imaging && imaging < treatment && treatment < consensus) {
		t.Errorf("sections out of order: %d %d %d %d", pathology, imaging, treatment, consensus)
	}
}

func TestHTML_EmptyTablesKeepHeader(t *testing.T) {
	d := sampleDetail()
	d.Pathology = nil
	d.Treatments = nil

	out, err := NewRenderer(DefaultMargins).HTML(d)
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}
	html := string(out)
	if n := strings.Count(html, "<tr><th>Date</th><th>Type</th><th>Investigation Details</th></tr>"); n != 2 {
		t.Errorf("expected 2 report header rows, got %d", n)
	}
	if !strings.Contains(html, "<tr><th>Type</th><th>Key Fields</th></tr>") {
		t.Error("expected treatment header row")
	}
}

func TestPDF(t *testing.T) {
	r := NewRenderer(DefaultMargins)
	r.compress = false

	out, err := r.PDF(sampleDetail())
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("expected PDF header")
	}
	for _, want := range []string{"MDT Case #12", "Pathology Reports", "FOLFOX", "Follow-ups: "} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("expected PDF to contain %q", want)
		}
	}
}

func TestPDF_Paginates(t *testing.T) {
	d := sampleDetail()
	long := strings.Repeat("Biopsy section with extended investigation notes. ", 8)
	for i := 0; i < 60; i++ {
		d.Pathology = append(d.Pathology, &mdt.Report{
			Kind:                 mdt.KindPathology,
			DateOfReport:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			ReportType:           "Biopsy",
			InvestigationDetails: &long,
		})
	}

	r := NewRenderer(DefaultMargins)
	r.compress = false
	out, err := r.PDF(d)
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}
	pages := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	if pages < 2 {
		t.Errorf("expected several pages, got %d", pages)
	}
}

var textOp = regexp.MustCompile(`BT\s+(-?[0-9.]+)\s+(-?[0-9.]+)\s+Td\s+\(([^)]*)\)`)

func TestPDF_CellLongerThanPage(t *testing.T) {
	d := sampleDetail()
	long := strings.Repeat("cytology ", 6000) + "ENDMARKER"
	d.Pathology = append(d.Pathology, &mdt.Report{
		Kind:                 mdt.KindPathology,
		DateOfReport:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ReportType:           "FNAC",
		InvestigationDetails: &long,
	})

	r := NewRenderer(DefaultMargins)
	r.compress = false
	out, err := r.PDF(d)
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}

	pages := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	if pages < 3 {
		t.Errorf("expected the report to span several pages, got %d", pages)
	}

	var sawEnd bool
	for _, m := range textOp.FindAllSubmatch(out, -1) {
		y, err := strconv.ParseFloat(string(m[2]), 64)
		if err != nil {
			t.Fatalf("bad text position %q: %v", m[2], err)
		}
		if y <= 0 {
			t.Errorf("text %q drawn below the page at y=%.2f", m[3], y)
		}
		if strings.Contains(string(m[3]), "ENDMARKER") {
			sawEnd = true
		}
	}
	if !sawEnd {
		t.Error("expected the end of the report text in the document")
	}
}

func TestNonLatinName(t *testing.T) {
	d := sampleDetail()
	d.Patient.Name = "राम कुमार"
	r := NewRenderer(DefaultMargins)
	r.compress = false

	html, err := r.HTML(d)
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}
	if !bytes.Contains(html, []byte("राम कुमार")) {
		t.Error("expected HTML to keep the name unchanged")
	}

	// The core PDF font is cp1252; the name is substituted but the
	// document still renders.
	out, err := r.PDF(d)
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}
	if !bytes.Contains(out, []byte("HN HN-042")) {
		t.Error("expected the rest of the patient line in the PDF")
	}
}
