package mdt

import (
	"encoding/json"
	"time"

	"github.com/mdt/mdt/internal/domain/patient"
)

func (c *Case) MarshalJSON() ([]byte, error) {
	type alias Case
	var date *string
	if s := c.ScheduledDateString(); s != "" {
		date = &s
	}
	return json.Marshal(struct {
		*alias
		ScheduledDate *string `json:"scheduled_date"`
	}{alias: (*alias)(c), ScheduledDate: date})
}

func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		*alias
		DateOfReport string `json:"date_of_report"`
	}{alias: (*alias)(r), DateOfReport: r.Date()})
}

func (t *Treatment) MarshalJSON() ([]byte, error) {
	var typ TreatmentType
	if t.Detail != nil {
		typ = t.Detail.Type()
	}
	return json.Marshal(struct {
		ID            int64           `json:"id"`
		CaseID        int64           `json:"case_id"`
		TreatmentType TreatmentType   `json:"treatment_type"`
		Details       TreatmentDetail `json:"details"`
		CreatedAt     time.Time       `json:"created_at"`
	}{t.ID, t.CaseID, typ, t.Detail, t.CreatedAt})
}

func (c *Consensus) MarshalJSON() ([]byte, error) {
	type alias Consensus
	followups := c.Followups
	if followups == nil {
		followups = []string{}
	}
	return json.Marshal(struct {
		*alias
		Followups []string `json:"followups"`
	}{alias: (*alias)(c), Followups: followups})
}

func (d *CaseDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Case       *Case           `json:"case"`
		Patient    patient.WithAge `json:"patient"`
		Pathology  []*Report       `json:"pathology_reports"`
		Imaging    []*Report       `json:"imaging_reports"`
		Treatments []*Treatment    `json:"treatments"`
		Consensus  *Consensus      `json:"consensus"`
	}{
		Case:       d.Case,
		Patient:    patient.WithAge{Patient: d.Patient, Age: d.Age},
		Pathology:  nonNil(d.Pathology),
		Imaging:    nonNil(d.Imaging),
		Treatments: nonNilTreatments(d.Treatments),
		Consensus:  d.Consensus,
	})
}

func (s *CaseSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Case    *Case            `json:"case"`
		Patient *patient.Patient `json:"patient"`
	}{s.Case, s.Patient})
}

func nonNil(rs []*Report) []*Report {
	if rs == nil {
		return []*Report{}
	}
	return rs
}

func nonNilTreatments(ts []*Treatment) []*Treatment {
	if ts == nil {
		return []*Treatment{}
	}
	return ts
}
