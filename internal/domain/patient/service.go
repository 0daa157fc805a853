package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
	"github.com/mdt/mdt/internal/platform/db"
	"github.com/mdt/mdt/internal/platform/metrics"
	"github.com/mdt/mdt/pkg/age"
)

// DuplicateHospitalNumber is the conflict message for an existing hospital
// number.
const DuplicateHospitalNumber = "Duplicate Hospital Number"

type Service struct {
	repo   Repository
	tx     db.Transactor
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger.With().Str("component", "patient").Logger(),
		now:    time.Now,
	}
}

// Register validates in and stores a new patient, returning its id.
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	if _, err := auth.Require(ctx); err != nil {
		return 0, err
	}

	p, err := in.toPatient()
	if err != nil {
		return 0, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return duplicate(s.repo.Create(ctx, p))
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordPatientRegistered()
	s.logger.Info().Int64("patient_id", p.ID).Msg("patient registered")
	return p.ID, nil
}

// Update replaces the editable fields of patient id.
func (s *Service) Update(ctx context.Context, id int64, in RegisterInput) (*Patient, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	next, err := in.toPatient()
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		next.ID = id
		return duplicate(s.repo.Update(ctx, next))
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	var p *Patient
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, id)
		return err
	})
	return p, err
}

// GetByHospitalNumber looks up a patient by the trimmed hospital number.
func (s *Service) GetByHospitalNumber(ctx context.Context, hn string) (*Patient, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}
	hn = strings.TrimSpace(hn)
	if hn == "" {
		return nil, apperr.Validation("hospital_number", "hospital number is required")
	}
	var p *Patient
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByHospitalNumber(ctx, hn)
		return err
	})
	return p, err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, 0, err
	}
	var (
		items []*Patient
		total int
	)
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		var err error
		items, total, err = s.repo.List(ctx, limit, offset)
		return err
	})
	return items, total, err
}

// Age is the display age of p as of today.
func (s *Service) Age(p *Patient) string {
	return age.Display(p.DateOfBirth, s.now())
}

func duplicate(err error) error {
	if errors.Is(err, apperr.ErrConflict) {
		e := apperr.Conflict(DuplicateHospitalNumber)
		e.Details = map[string]string{"field": "hospital_number"}
		return e
	}
	return err
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

func (in RegisterInput) toPatient() (*Patient, error) {
	p := &Patient{
		Name:           strings.TrimSpace(in.Name),
		HospitalNumber: strings.TrimSpace(in.HospitalNumber),
		PhonePrimary:   strings.TrimSpace(in.PhonePrimary),
		Address:        strings.TrimSpace(in.Address),
		PinCode:        optional(in.PinCode),
		DigiPin:        optional(in.DigiPin),
	}

	required := []struct{ field, value string }{
		{"name", p.Name},
		{"hospital_number", p.HospitalNumber},
		{"phone_primary", p.PhonePrimary},
		{"address", p.Address},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, apperr.Validation(r.field, r.field+" is required")
		}
	}

	dob, err := ParseDate(in.DateOfBirth)
	if err != nil {
		return nil, apperr.Validation("date_of_birth", "Invalid date format. Use YYYY-MM-DD.")
	}
	p.DateOfBirth = dob

	p.AdditionalPhones = make([]string, 0, len(in.AdditionalPhones))
	for _, ph := range in.AdditionalPhones {
		if ph = strings.TrimSpace(ph); ph != "" {
			p.AdditionalPhones = append(p.AdditionalPhones, ph)
		}
	}

	return p, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
