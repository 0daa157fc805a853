package mdt

import (
	"context"
	"time"

	"github.com/mdt/mdt/internal/domain/patient"
)

type CaseRepository interface {
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id int64) (*Case, error)
	// GetForUpdate locks the case row until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Case, error)
	// Update writes the discussion fields and scheduled date. Status is
	// left untouched.
	Update(ctx context.Context, c *Case) error
	SetStatus(ctx context.Context, id int64, s Status) error
	// SearchByScheduledDate returns cases scheduled within [start, end].
	SearchByScheduledDate(ctx context.Context, start, end time.Time) ([]*CaseSummary, error)
	SearchByHospitalNumber(ctx context.Context, hn string) ([]*CaseSummary, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	// ListByCase returns reports of one kind in insertion order.
	ListByCase(ctx context.Context, caseID int64, kind ReportKind) ([]*Report, error)
}

type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	ListByCase(ctx context.Context, caseID int64) ([]*Treatment, error)
}

type ConsensusRepository interface {
	// Upsert replaces text and follow-ups of the case's single consensus.
	Upsert(ctx context.Context, c *Consensus) error
	// GetByCase returns nil without error when the case has no consensus.
	GetByCase(ctx context.Context, caseID int64) (*Consensus, error)
}

// PatientLookup is the part of the patient store the case manager reads.
type PatientLookup interface {
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
	GetByHospitalNumber(ctx context.Context, hn string) (*patient.Patient, error)
}
