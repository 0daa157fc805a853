package vocab

import "context"

type Repository interface {
	// List returns the entries of v ordered by name. A non-empty kind
	// filters report types.
	List(ctx context.Context, v Vocabulary, kind string) ([]*Term, error)
	Add(ctx context.Context, v Vocabulary, t *Term) error
	Delete(ctx context.Context, v Vocabulary, id int64) error
}
