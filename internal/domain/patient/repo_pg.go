package patient

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdt/mdt/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, r.pool)
}

// Cols is the patient column list, exported for joins from other domains.
const Cols = `p.id, p.name, p.hospital_number, p.date_of_birth, p.phone_primary,
	p.address, p.pin_code, p.digi_pin, p.additional_phones, p.created_at, p.updated_at`

// Scan reads a row selected with Cols.
func Scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.HospitalNumber, &p.DateOfBirth, &p.PhonePrimary,
		&p.Address, &p.PinCode, &p.DigiPin, &p.AdditionalPhones, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func phones(p *Patient) []string {
	if p.AdditionalPhones == nil {
		return []string{}
	}
	return p.AdditionalPhones
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (name, hospital_number, date_of_birth, phone_primary,
			address, pin_code, digi_pin, additional_phones)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		p.Name, p.HospitalNumber, p.DateOfBirth, p.PhonePrimary,
		p.Address, p.PinCode, p.DigiPin, phones(p),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "patient", p.HospitalNumber)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := Scan(r.conn(ctx).QueryRow(ctx, `SELECT `+Cols+` FROM patient p WHERE p.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "patient", strconv.FormatInt(id, 10))
	}
	return p, nil
}

func (r *repoPG) GetByHospitalNumber(ctx context.Context, hn string) (*Patient, error) {
	p, err := Scan(r.conn(ctx).QueryRow(ctx, `SELECT `+Cols+` FROM patient p WHERE p.hospital_number = $1`, hn))
	if err != nil {
		return nil, db.MapError(err, "patient", hn)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET name=$2, hospital_number=$3, date_of_birth=$4, phone_primary=$5,
			address=$6, pin_code=$7, digi_pin=$8, additional_phones=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.HospitalNumber, p.DateOfBirth, p.PhonePrimary,
		p.Address, p.PinCode, p.DigiPin, phones(p),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "patient", strconv.FormatInt(p.ID, 10))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err, "patient", "")
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+Cols+` FROM patient p ORDER BY p.id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err, "patient", "")
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, 0, db.MapError(err, "patient", "")
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err, "patient", "")
	}
	return items, total, nil
}
