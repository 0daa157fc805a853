package casedoc

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/mdt/mdt/internal/domain/mdt"
)

var page = template.Must(template.New("case").Funcs(template.FuncMap{
	"section": func(title string, rows []reportRow) reportSection {
		return reportSection{Title: title, Rows: rows}
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<title>MDT Case #{{.CaseID}}</title>
<style>
  body { font-family: sans-serif; }
  h1 { margin-bottom: 0; }
  .muted { color: #666; }
  .section { margin-top: 12px; }
  table { width: 100%; border-collapse: collapse; }
  td, th { border: 1px solid #ddd; padding: 6px; vertical-align: top; }
  .badge { padding: 2px 6px; border-radius: 4px; background: #eee; }
</style>
</head>
<body>
<h1>MDT Case #{{.CaseID}}</h1>
<div class="muted">Patient: {{.PatientName}} — HN {{.HospitalNumber}}</div>
<div class="muted">DOB {{.DOB}} — Status <span class="badge">{{.Status}}</span></div>

<div class="section"><strong>Clinical History</strong><br/>{{.ClinicalHistory}}</div>
<div class="section"><strong>Provisional Diagnosis</strong><br/>{{.ProvisionalDiagnosis}}</div>
<div class="section"><strong>Discussion For</strong><br/>{{.DiscussionFor}}</div>
<div class="section"><strong>Scheduled</strong><br/>{{.Scheduled}}</div>
{{template "reports" section "Pathology Reports" .Pathology}}
{{template "reports" section "Imaging Reports" .Imaging}}
<div class="section"><strong>Treatment History</strong>
<table>
<tr><th>Type</th><th>Key Fields</th></tr>
{{- range .Treatments}}
<tr><td>{{.Type}}</td><td>{{.Key}}</td></tr>
{{- end}}
</table>
</div>

<div class="section"><strong>Consensus &amp; Follow-ups</strong><br/>{{.Consensus}}
<div>Follow-ups: {{.Followups}}</div>
</div>
</body>
</html>
{{define "reports"}}
<div class="section"><strong>{{.Title}}</strong>
<table>
<tr><th>Date</th><th>Type</th><th>Investigation Details</th></tr>
{{- range .Rows}}
<tr><td>{{.Date}}</td><td>{{.Type}}</td><td>{{.Details}}</td></tr>
{{- end}}
</table>
</div>
{{end}}`))

type reportSection struct {
	Title string
	Rows  []reportRow
}

// HTML renders d as a standalone HTML page.
func (r *Renderer) HTML(d *mdt.CaseDetail) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, newView(d)); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
