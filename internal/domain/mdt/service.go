package mdt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/domain/patient"
	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
	"github.com/mdt/mdt/internal/platform/db"
	"github.com/mdt/mdt/internal/platform/metrics"
	"github.com/mdt/mdt/pkg/age"
)

// DocumentRenderer turns a case detail into a printable document.
type DocumentRenderer interface {
	HTML(d *CaseDetail) ([]byte, error)
	PDF(d *CaseDetail) ([]byte, error)
}

// Format selects the document output.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// Document is a rendered case document.
type Document struct {
	Body        []byte
	ContentType string
	Filename    string
}

type Service struct {
	cases      CaseRepository
	reports    ReportRepository
	treatments TreatmentRepository
	consensus  ConsensusRepository
	patients   PatientLookup
	renderer   DocumentRenderer
	tx         db.Transactor
	logger     zerolog.Logger
	now        func() time.Time
}

// Repositories groups the stores the case manager works on.
type Repositories struct {
	Cases      CaseRepository
	Reports    ReportRepository
	Treatments TreatmentRepository
	Consensus  ConsensusRepository
	Patients   PatientLookup
}

func NewService(repos Repositories, renderer DocumentRenderer, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		cases:      repos.Cases,
		reports:    repos.Reports,
		treatments: repos.Treatments,
		consensus:  repos.Consensus,
		patients:   repos.Patients,
		renderer:   renderer,
		tx:         tx,
		logger:     logger.With().Str("component", "mdt").Logger(),
		now:        time.Now,
	}
}

// CreateCase opens a Pending case for the patient with hospitalNumber. A
// scheduled date that does not parse is stored as no date and reported
// through MissingDate.
func (s *Service) CreateCase(ctx context.Context, hospitalNumber string, in CaseInput) (CreateResult, error) {
	if _, err := auth.Require(ctx); err != nil {
		return CreateResult{}, err
	}
	hn := strings.TrimSpace(hospitalNumber)
	if hn == "" {
		return CreateResult{}, apperr.Validation("hospital_number", "hospital number is required")
	}

	c := in.toCase()
	c.Status = StatusPending

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetByHospitalNumber(ctx, hn)
		if err != nil {
			return err
		}
		c.PatientID = p.ID
		return s.cases.Create(ctx, c)
	})
	if err != nil {
		return CreateResult{}, err
	}

	res := CreateResult{CaseID: c.ID, MissingDate: c.ScheduledDate == nil}
	metrics.RecordCaseCreated(res.MissingDate)
	ev := s.logger.Info().Int64("case_id", c.ID).Int64("patient_id", c.PatientID)
	if res.MissingDate {
		ev = ev.Bool("missing_date", true)
	}
	ev.Msg("case created")
	return res, nil
}

// UpdateCase replaces the discussion fields and scheduled date of a case.
// Status is not editable here.
func (s *Service) UpdateCase(ctx context.Context, caseID int64, in CaseInput) (*Case, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	next := in.toCase()
	next.ID = caseID

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.cases.GetForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		next.PatientID = cur.PatientID
		return s.cases.Update(ctx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// LoadCaseDetail reads a case with its patient and all child records from
// one snapshot.
func (s *Service) LoadCaseDetail(ctx context.Context, caseID int64) (*CaseDetail, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	var d CaseDetail
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByID(ctx, caseID)
		if err != nil {
			return err
		}
		p, err := s.patients.GetByID(ctx, c.PatientID)
		if err != nil {
			return fmt.Errorf("load patient of case %d: %w", caseID, err)
		}
		if d.Pathology, err = s.reports.ListByCase(ctx, caseID, KindPathology); err != nil {
			return err
		}
		if d.Imaging, err = s.reports.ListByCase(ctx, caseID, KindImaging); err != nil {
			return err
		}
		if d.Treatments, err = s.treatments.ListByCase(ctx, caseID); err != nil {
			return err
		}
		if d.Consensus, err = s.consensus.GetByCase(ctx, caseID); err != nil {
			return err
		}
		d.Case, d.Patient = c, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.Age = age.Display(d.Patient.DateOfBirth, s.now())
	return &d, nil
}

// FinalizeConsensus stores the consensus of a case and marks it Done.
// Repeating it on a Done case replaces the consensus and keeps the status.
func (s *Service) FinalizeConsensus(ctx context.Context, caseID int64, text string, followups []string) (*Consensus, error) {
	who, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}

	c := &Consensus{CaseID: caseID, Text: strings.TrimSpace(text), Followups: cleanFollowups(followups)}
	var prev Status
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.cases.GetForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		prev = cur.Status
		if err := s.consensus.Upsert(ctx, c); err != nil {
			return err
		}
		return s.cases.SetStatus(ctx, caseID, StatusDone)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordConsensusFinalized()
	s.logger.Info().
		Int64("case_id", caseID).
		Str("from", string(prev)).
		Str("to", string(StatusDone)).
		Int64("user_id", who.UserID).
		Msg("consensus finalized")
	return c, nil
}

// SearchByDateRange returns cases scheduled between start and end
// inclusive. Malformed bounds or an inverted range give an empty result.
func (s *Service) SearchByDateRange(ctx context.Context, start, end string) ([]*CaseSummary, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	from, err1 := patient.ParseDate(start)
	to, err2 := patient.ParseDate(end)
	if err1 != nil || err2 != nil || from.After(to) {
		return []*CaseSummary{}, nil
	}
	var hits []*CaseSummary
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		hits, err = s.cases.SearchByScheduledDate(ctx, from, to)
		return err
	})
	return nonNilSummaries(hits, err)
}

// SearchByHospitalNumber returns every case of the patient with hn. An
// empty hn gives an empty result.
func (s *Service) SearchByHospitalNumber(ctx context.Context, hn string) ([]*CaseSummary, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	hn = strings.TrimSpace(hn)
	if hn == "" {
		return []*CaseSummary{}, nil
	}
	var hits []*CaseSummary
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		hits, err = s.cases.SearchByHospitalNumber(ctx, hn)
		return err
	})
	return nonNilSummaries(hits, err)
}

// AddReport appends a pathology or imaging report to a case.
func (s *Service) AddReport(ctx context.Context, caseID int64, kind ReportKind, in ReportInput) (*Report, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, apperr.Validation("kind", fmt.Sprintf("unknown report kind %q", kind))
	}

	rep, err := in.toReport()
	if err != nil {
		return nil, err
	}
	rep.CaseID = caseID
	rep.Kind = kind

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.cases.GetByID(ctx, caseID); err != nil {
			return err
		}
		return s.reports.Create(ctx, rep)
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// AddTreatment decodes the variant named by in.TreatmentType and appends it
// to a case.
func (s *Service) AddTreatment(ctx context.Context, caseID int64, in TreatmentInput) (*Treatment, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	detail, err := DecodeTreatment(in.TreatmentType, in.Details)
	if err != nil {
		return nil, err
	}

	t := &Treatment{CaseID: caseID, Detail: detail}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.cases.GetByID(ctx, caseID); err != nil {
			return err
		}
		return s.treatments.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// RenderDocument loads a case and renders it in the requested format.
func (s *Service) RenderDocument(ctx context.Context, caseID int64, format Format) (*Document, error) {
	if format != FormatPDF && format != FormatHTML {
		return nil, apperr.Validation("format", fmt.Sprintf("unsupported document format %q", format))
	}
	d, err := s.LoadCaseDetail(ctx, caseID)
	if err != nil {
		return nil, err
	}

	doc := &Document{Filename: fmt.Sprintf("mdt_case_%d.%s", caseID, format)}
	switch format {
	case FormatPDF:
		doc.ContentType = "application/pdf"
		doc.Body, err = s.renderer.PDF(d)
	case FormatHTML:
		doc.ContentType = "text/html; charset=utf-8"
		doc.Body, err = s.renderer.HTML(d)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("render case %d as %s: %w", caseID, format, err))
	}

	metrics.RecordDocumentRendered(string(format))
	return doc, nil
}

func (in CaseInput) toCase() *Case {
	c := &Case{
		ClinicalHistory:      strings.TrimSpace(in.ClinicalHistory),
		ProvisionalDiagnosis: strings.TrimSpace(in.ProvisionalDiagnosis),
		DiscussionFor:        strings.TrimSpace(in.DiscussionFor),
		ScheduledReason:      strings.TrimSpace(in.ScheduledReason),
	}
	if d, err := patient.ParseDate(in.ScheduledDate); err == nil {
		c.ScheduledDate = &d
	}
	return c
}

func (in ReportInput) toReport() (*Report, error) {
	if strings.TrimSpace(in.DateOfReport) == "" {
		return nil, apperr.Validation("date_of_report", "date_of_report is required")
	}
	d, err := patient.ParseDate(in.DateOfReport)
	if err != nil {
		return nil, apperr.Validation("date_of_report", "Invalid date format. Use YYYY-MM-DD.")
	}
	typ := strings.TrimSpace(in.ReportType)
	if typ == "" {
		return nil, apperr.Validation("report_type", "report_type is required")
	}
	rep := &Report{DateOfReport: d, ReportType: typ}
	if details := strings.TrimSpace(in.InvestigationDetails); details != "" {
		rep.InvestigationDetails = &details
	}
	return rep, nil
}

func cleanFollowups(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func nonNilSummaries(s []*CaseSummary, err error) ([]*CaseSummary, error) {
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = []*CaseSummary{}
	}
	return s, nil
}
