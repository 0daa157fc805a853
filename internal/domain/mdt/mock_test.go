package mdt

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/domain/patient"
	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
)

// -- In-memory store --

type memStore struct {
	patients   map[int64]*patient.Patient
	cases      map[int64]*Case
	reports    []*Report
	treatments []*Treatment
	consensus  map[int64]*Consensus
	nextID     int64
	err        error
}

func newMemStore() *memStore {
	return &memStore{
		patients:  make(map[int64]*patient.Patient),
		cases:     make(map[int64]*Case),
		consensus: make(map[int64]*Consensus),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addPatient(hn string, dob time.Time) *patient.Patient {
	p := &patient.Patient{ID: m.id(), Name: "Ravi Kumar", HospitalNumber: hn, DateOfBirth: dob}
	m.patients[p.ID] = p
	return p
}

type mockPatients struct{ *memStore }

func (m mockPatients) GetByID(_ context.Context, id int64) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient", strconv.FormatInt(id, 10))
	}
	return p, nil
}

func (m mockPatients) GetByHospitalNumber(_ context.Context, hn string) (*patient.Patient, error) {
	for _, p := range m.patients {
		if p.HospitalNumber == hn {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient", hn)
}

type mockCases struct{ *memStore }

func (m mockCases) Create(_ context.Context, c *Case) error {
	if m.err != nil {
		return m.err
	}
	c.ID = m.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.cases[c.ID] = &cp
	return nil
}

func (m mockCases) GetByID(_ context.Context, id int64) (*Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cases[id]
	if !ok {
		return nil, apperr.NotFound("mdt_case", strconv.FormatInt(id, 10))
	}
	cp := *c
	return &cp, nil
}

func (m mockCases) GetForUpdate(ctx context.Context, id int64) (*Case, error) {
	return m.GetByID(ctx, id)
}

func (m mockCases) Update(_ context.Context, c *Case) error {
	cur, ok := m.cases[c.ID]
	if !ok {
		return apperr.NotFound("mdt_case", strconv.FormatInt(c.ID, 10))
	}
	c.Status = cur.Status
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now()
	cp := *c
	m.cases[c.ID] = &cp
	return nil
}

func (m mockCases) SetStatus(_ context.Context, id int64, s Status) error {
	c, ok := m.cases[id]
	if !ok {
		return apperr.NotFound("mdt_case", strconv.FormatInt(id, 10))
	}
	c.Status = s
	return nil
}

func (m mockCases) search(match func(*Case, *patient.Patient) bool) []*CaseSummary {
	var out []*CaseSummary
	for _, c := range m.cases {
		p := m.patients[c.PatientID]
		if match(c, p) {
			out = append(out, &CaseSummary{Case: c, Patient: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Case.ID < out[j].Case.ID })
	return out
}

func (m mockCases) SearchByScheduledDate(_ context.Context, start, end time.Time) ([]*CaseSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.search(func(c *Case, _ *patient.Patient) bool {
		return c.ScheduledDate != nil && !c.ScheduledDate.Before(start) && !c.ScheduledDate.After(end)
	}), nil
}

func (m mockCases) SearchByHospitalNumber(_ context.Context, hn string) ([]*CaseSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.search(func(_ *Case, p *patient.Patient) bool { return p.HospitalNumber == hn }), nil
}

type mockReports struct{ *memStore }

func (m mockReports) Create(_ context.Context, r *Report) error {
	r.ID = m.id()
	r.CreatedAt = time.Now()
	m.memStore.reports = append(m.memStore.reports, r)
	return nil
}

func (m mockReports) ListByCase(_ context.Context, caseID int64, kind ReportKind) ([]*Report, error) {
	var out []*Report
	for _, r := range m.memStore.reports {
		if r.CaseID == caseID && r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockTreatments struct{ *memStore }

func (m mockTreatments) Create(_ context.Context, t *Treatment) error {
	t.ID = m.id()
	t.CreatedAt = time.Now()
	m.memStore.treatments = append(m.memStore.treatments, t)
	return nil
}

func (m mockTreatments) ListByCase(_ context.Context, caseID int64) ([]*Treatment, error) {
	var out []*Treatment
	for _, t := range m.memStore.treatments {
		if t.CaseID == caseID {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockConsensus struct{ *memStore }

func (m mockConsensus) Upsert(_ context.Context, c *Consensus) error {
	if cur, ok := m.memStore.consensus[c.CaseID]; ok {
		c.ID = cur.ID
		c.CreatedAt = cur.CreatedAt
	} else {
		c.ID = m.id()
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()
	cp := *c
	m.memStore.consensus[c.CaseID] = &cp
	return nil
}

func (m mockConsensus) GetByCase(_ context.Context, caseID int64) (*Consensus, error) {
	return m.memStore.consensus[caseID], nil
}

// -- Renderer --

type stubRenderer struct {
	last *CaseDetail
	err  error
}

func (r *stubRenderer) HTML(d *CaseDetail) ([]byte, error) {
	r.last = d
	return []byte("<h1>MDT Case</h1>"), r.err
}

func (r *stubRenderer) PDF(d *CaseDetail) ([]byte, error) {
	r.last = d
	return []byte("%PDF-1.3"), r.err
}

// passTx runs fn directly and counts the transactions asked for.
type passTx struct{ writes, reads int }

func (t *passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.writes++
	return fn(ctx)
}

func (t *passTx) WithReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.reads++
	return fn(ctx)
}

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memStore, *stubRenderer) {
	store := newMemStore()
	renderer := &stubRenderer{}
	svc := NewService(Repositories{
		Cases:      mockCases{store},
		Reports:    mockReports{store},
		Treatments: mockTreatments{store},
		Consensus:  mockConsensus{store},
		Patients:   mockPatients{store},
	}, renderer, &passTx{}, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc, store, renderer
}

func userCtx() context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{UserID: 7, Email: "doc@example.com", Role: auth.RoleUser})
}

func date(s string) time.Time {
	d, err := patient.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
