package vocab

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdt/mdt/internal/platform/db"
)

type table struct {
	name    string
	nameCol string
	hasKind bool
}

var tables = map[Vocabulary]table{
	ReportTypes:      {name: "report_type", nameCol: "name", hasKind: true},
	TreatmentConfigs: {name: "treatment_config", nameCol: "allowed_type"},
	ChemoSchedules:   {name: "chemo_schedule", nameCol: "name"},
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, r.pool)
}

func lookup(v Vocabulary) (table, error) {
	t, ok := tables[v]
	if !ok {
		return table{}, fmt.Errorf("unknown vocabulary %q", v)
	}
	return t, nil
}

func (r *repoPG) List(ctx context.Context, v Vocabulary, kind string) ([]*Term, error) {
	t, err := lookup(v)
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	switch {
	case t.hasKind && kind != "":
		rows, err = r.conn(ctx).Query(ctx, fmt.Sprintf(`SELECT id, kind, %s FROM %s WHERE kind = $1 ORDER BY %s`, t.nameCol, t.name, t.nameCol), kind)
	case t.hasKind:
		rows, err = r.conn(ctx).Query(ctx, fmt.Sprintf(`SELECT id, kind, %s FROM %s ORDER BY kind, %s`, t.nameCol, t.name, t.nameCol))
	default:
		rows, err = r.conn(ctx).Query(ctx, fmt.Sprintf(`SELECT id, '', %s FROM %s ORDER BY %s`, t.nameCol, t.name, t.nameCol))
	}
	if err != nil {
		return nil, db.MapError(err, t.name, "")
	}
	defer rows.Close()

	var terms []*Term
	for rows.Next() {
		var term Term
		if err := rows.Scan(&term.ID, &term.Kind, &term.Name); err != nil {
			return nil, db.MapError(err, t.name, "")
		}
		terms = append(terms, &term)
	}
	return terms, db.MapError(rows.Err(), t.name, "")
}

func (r *repoPG) Add(ctx context.Context, v Vocabulary, term *Term) error {
	t, err := lookup(v)
	if err != nil {
		return err
	}
	if t.hasKind {
		err = r.conn(ctx).QueryRow(ctx, fmt.Sprintf(`INSERT INTO %s (kind, %s) VALUES ($1, $2) RETURNING id`, t.name, t.nameCol),
			term.Kind, term.Name).Scan(&term.ID)
	} else {
		err = r.conn(ctx).QueryRow(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1) RETURNING id`, t.name, t.nameCol),
			term.Name).Scan(&term.ID)
	}
	return db.MapError(err, t.name, term.Name)
}

func (r *repoPG) Delete(ctx context.Context, v Vocabulary, id int64) error {
	t, err := lookup(v)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return db.MapError(err, t.name, strconv.FormatInt(id, 10))
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, t.name, strconv.FormatInt(id, 10))
	}
	return nil
}
