package patient

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	records map[int64]*Patient
	nextID  int64
	err     error
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[int64]*Patient)}
}

func (m *mockRepo) hnTaken(hn string, except int64) bool {
	for id, p := range m.records {
		if p.HospitalNumber == hn && id != except {
			return true
		}
	}
	return false
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if m.err != nil {
		return m.err
	}
	if m.hnTaken(p.HospitalNumber, 0) {
		return apperr.Conflict("duplicate value violates a unique constraint")
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.records[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.records[id]
	if !ok {
		return nil, apperr.NotFound("patient", strconv.FormatInt(id, 10))
	}
	return p, nil
}

func (m *mockRepo) GetByHospitalNumber(_ context.Context, hn string) (*Patient, error) {
	for _, p := range m.records {
		if p.HospitalNumber == hn {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient", hn)
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if m.hnTaken(p.HospitalNumber, p.ID) {
		return apperr.Conflict("duplicate value violates a unique constraint")
	}
	p.UpdatedAt = time.Now()
	m.records[p.ID] = p
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.records {
		result = append(result, p)
	}
	return result, len(result), nil
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

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo, &passTx{}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func userCtx() context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{UserID: 1, Email: "u@example.com", Role: auth.RoleUser})
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:             "  Asha Rao ",
		HospitalNumber:   " HN-001 ",
		DateOfBirth:      "2014-02-15",
		PhonePrimary:     "9876543210",
		Address:          "12 MG Road",
		PinCode:          " 560001 ",
		AdditionalPhones: []string{" 111 ", "", "222"},
	}
}

func TestRegister(t *testing.T) {
	svc, repo := newTestService()

	id, err := svc.Register(userCtx(), validInput())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	p := repo.records[id]
	if p.Name != "Asha Rao" || p.HospitalNumber != "HN-001" {
		t.Errorf("expected trimmed fields, got %q / %q", p.Name, p.HospitalNumber)
	}
	if p.PinCode == nil || *p.PinCode != "560001" {
		t.Errorf("expected trimmed pin code, got %v", p.PinCode)
	}
	if p.DigiPin != nil {
		t.Errorf("expected nil digi pin, got %v", *p.DigiPin)
	}
	if len(p.AdditionalPhones) != 2 || p.AdditionalPhones[0] != "111" || p.AdditionalPhones[1] != "222" {
		t.Errorf("unexpected additional phones %v", p.AdditionalPhones)
	}
	if got := p.DOB(); got != "2014-02-15" {
		t.Errorf("expected DOB 2014-02-15, got %s", got)
	}
	if got := svc.Age(p); got != "10 years" {
		t.Errorf("expected age 10 years, got %s", got)
	}
}

func TestRegister_DuplicateHospitalNumber(t *testing.T) {
	svc, repo := newTestService()
	if _, err := svc.Register(userCtx(), validInput()); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}

	_, err := svc.Register(userCtx(), validInput())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apperr.From(err).Message != DuplicateHospitalNumber {
		t.Errorf("unexpected message %q", apperr.From(err).Message)
	}
	if len(repo.records) != 1 {
		t.Errorf("expected exactly one stored patient, got %d", len(repo.records))
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"impossible date", func(in *RegisterInput) { in.DateOfBirth = "2023-02-30" }, "date_of_birth"},
		{"wrong layout", func(in *RegisterInput) { in.DateOfBirth = "15/02/2014" }, "date_of_birth"},
		{"empty date", func(in *RegisterInput) { in.DateOfBirth = "" }, "date_of_birth"},
		{"blank name", func(in *RegisterInput) { in.Name = "   " }, "name"},
		{"missing hospital number", func(in *RegisterInput) { in.HospitalNumber = "" }, "hospital_number"},
		{"missing phone", func(in *RegisterInput) { in.PhonePrimary = "" }, "phone_primary"},
		{"missing address", func(in *RegisterInput) { in.Address = "" }, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Register(userCtx(), in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := apperr.From(err).Details["field"]; got != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, got)
			}
			if len(repo.records) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestRegister_RequiresIdentity(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
}

func TestRegister_StoreUnavailable(t *testing.T) {
	svc, repo := newTestService()
	repo.err = apperr.Unavailable(context.DeadlineExceeded)

	_, err := svc.Register(userCtx(), validInput())
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, repo := newTestService()
	id, err := svc.Register(userCtx(), validInput())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	in := validInput()
	in.Address = "  34 Residency Road "
	p, err := svc.Update(userCtx(), id, in)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if p.Address != "34 Residency Road" {
		t.Errorf("unexpected address %q", p.Address)
	}
	if repo.records[id].Address != "34 Residency Road" {
		t.Error("expected update to be stored")
	}
}

func TestUpdate_Conflict(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(userCtx(), validInput()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	other := validInput()
	other.HospitalNumber = "HN-002"
	id2, err := svc.Register(userCtx(), other)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	_, err = svc.Update(userCtx(), id2, validInput())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Update(userCtx(), 99, validInput())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestGetByHospitalNumber(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(userCtx(), validInput()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	p, err := svc.GetByHospitalNumber(userCtx(), " HN-001 ")
	if err != nil {
		t.Fatalf("GetByHospitalNumber() error: %v", err)
	}
	if p.Name != "Asha Rao" {
		t.Errorf("unexpected patient %q", p.Name)
	}

	if _, err := svc.GetByHospitalNumber(userCtx(), "HN-404"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.GetByHospitalNumber(userCtx(), "  "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_RunsInTransactions(t *testing.T) {
	svc, _ := newTestService()
	tx := svc.tx.(*passTx)
	ctx := userCtx()

	id, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if tx.writes != 1 {
		t.Errorf("expected Register to open 1 write transaction, got %d", tx.writes)
	}

	if _, err := svc.Get(ctx, id); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if _, err := svc.GetByHospitalNumber(ctx, "HN-001"); err != nil {
		t.Fatalf("GetByHospitalNumber() error: %v", err)
	}
	if _, _, err := svc.List(ctx, 20, 0); err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if tx.reads != 3 {
		t.Errorf("expected 3 read transactions, got %d", tx.reads)
	}
}
