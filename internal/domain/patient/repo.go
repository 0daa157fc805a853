package patient

import "context"

// Repository persists patients. Create and Update report a duplicate
// hospital number as apperr.ErrConflict; lookups report apperr.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByHospitalNumber(ctx context.Context, hn string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
