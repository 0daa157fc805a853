package mdt

import (
	"time"

	"github.com/mdt/mdt/internal/domain/patient"
)

// Status is the lifecycle state of a case. Pending is initial; Done is set
// only by finalizing the consensus.
type Status string

const (
	StatusPending Status = "Pending"
	StatusDone    Status = "Done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDone:
		return true
	}
	return false
}

// ReportKind distinguishes pathology from imaging reports.
type ReportKind string

const (
	KindPathology ReportKind = "pathology"
	KindImaging   ReportKind = "imaging"
)

func (k ReportKind) Valid() bool {
	switch k {
	case KindPathology, KindImaging:
		return true
	}
	return false
}

type Case struct {
	ID                   int64      `json:"id"`
	PatientID            int64      `json:"patient_id"`
	ClinicalHistory      string     `json:"clinical_history"`
	ProvisionalDiagnosis string     `json:"provisional_diagnosis"`
	DiscussionFor        string     `json:"discussion_for"`
	ScheduledReason      string     `json:"scheduled_reason"`
	ScheduledDate        *time.Time `json:"-"`
	Status               Status     `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ScheduledDateString returns the scheduled date as YYYY-MM-DD or "".
func (c *Case) ScheduledDateString() string {
	if c.ScheduledDate == nil {
		return ""
	}
	return c.ScheduledDate.Format(patient.DateLayout)
}

// CaseInput holds the editable discussion fields. ScheduledDate is parsed
// leniently: anything that is not YYYY-MM-DD is stored as no date.
type CaseInput struct {
	ClinicalHistory      string `json:"clinical_history"`
	ProvisionalDiagnosis string `json:"provisional_diagnosis"`
	DiscussionFor        string `json:"discussion_for"`
	ScheduledReason      string `json:"scheduled_reason"`
	ScheduledDate        string `json:"scheduled_date"`
}

// CreateResult reports the new case id and whether it still needs a
// scheduled date.
type CreateResult struct {
	CaseID      int64 `json:"id"`
	MissingDate bool  `json:"missing_date"`
}

type Report struct {
	ID                   int64      `json:"id"`
	CaseID               int64      `json:"case_id"`
	Kind                 ReportKind `json:"kind"`
	DateOfReport         time.Time  `json:"-"`
	ReportType           string     `json:"report_type"`
	InvestigationDetails *string    `json:"investigation_details"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Date returns the report date as YYYY-MM-DD.
func (r *Report) Date() string {
	return r.DateOfReport.Format(patient.DateLayout)
}

type ReportInput struct {
	DateOfReport         string `json:"date_of_report"`
	ReportType           string `json:"report_type"`
	InvestigationDetails string `json:"investigation_details"`
}

type Treatment struct {
	ID        int64           `json:"id"`
	CaseID    int64           `json:"case_id"`
	Detail    TreatmentDetail `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

type Consensus struct {
	ID        int64     `json:"id"`
	CaseID    int64     `json:"case_id"`
	Text      string    `json:"consensus_text"`
	Followups []string  `json:"followups"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CaseDetail is a case with every child collection, read from one snapshot.
type CaseDetail struct {
	Case       *Case
	Patient    *patient.Patient
	Age        string
	Pathology  []*Report
	Imaging    []*Report
	Treatments []*Treatment
	Consensus  *Consensus
}

// CaseSummary is a search hit with its patient.
type CaseSummary struct {
	Case    *Case
	Patient *patient.Patient
}
